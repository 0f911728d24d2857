// Package port defines domain-specific errors
package port

import "errors"

// Domain errors - defined once, used everywhere
var (
	// Connection errors
	ErrDirectionMismatch = errors.New("connections run output to input only")
	ErrKindMismatch      = errors.New("port kinds do not match")
	ErrAlreadyConnected  = errors.New("ports are already connected")
	ErrInputOccupied     = errors.New("data input already has a connection")
	ErrNotConnected      = errors.New("ports are not connected")
	ErrSamePort          = errors.New("cannot connect a port to itself")

	// Value errors
	ErrNotDataPort = errors.New("port does not carry a value")

	// Construction errors
	ErrInvalidKind = errors.New("invalid port kind")
)

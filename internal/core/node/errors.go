// Package node defines domain-specific errors
package node

import "errors"

// Domain errors - defined once, used everywhere
var (
	// Kind registry errors
	ErrNilKind         = errors.New("kind cannot be nil")
	ErrInvalidKindName = errors.New("invalid kind name")
	ErrDuplicateKind   = errors.New("duplicate kind name")
	ErrKindNotFound    = errors.New("kind not found")

	// Port access errors. These indicate programming errors in node logic and
	// surface to the caller instead of being swallowed at the update boundary.
	ErrPortIndexOutOfRange = errors.New("port index out of range")
	ErrPortNotOwned        = errors.New("port does not belong to this instance")
	ErrNotExecPort         = errors.New("port is not an exec port")

	// Action errors
	ErrActionNotFound    = errors.New("action not found")
	ErrActionNotResolved = errors.New("action method cannot be resolved")
	ErrNotSubmenu        = errors.New("action path traverses a leaf entry")

	// Lifecycle errors
	ErrNotReady = errors.New("instance is not ready")
)

// Package flow defines domain-specific errors
package flow

import "errors"

// Domain errors - defined once, used everywhere
var (
	ErrNilNode         = errors.New("node cannot be nil")
	ErrNilFlow         = errors.New("flow cannot be nil")
	ErrDuplicateNode   = errors.New("duplicate node ID")
	ErrNodeNotFound    = errors.New("node not found")
	ErrFlowNotFound    = errors.New("flow not found")
	ErrUnknownPort     = errors.New("port index not present on node")
	ErrInvalidFlowName = errors.New("invalid flow name")
)

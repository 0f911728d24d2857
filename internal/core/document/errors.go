// Package document defines domain-specific errors
package document

import "errors"

// Domain errors - defined once, used everywhere
var (
	// Document validation errors
	ErrInvalidDocumentID = errors.New("invalid document ID")
	ErrInvalidFlowName   = errors.New("invalid flow name")
	ErrNilNodes          = errors.New("document nodes cannot be nil")
	ErrDocumentNotFound  = errors.New("document not found")

	// Node description errors
	ErrMissingNodeKind = errors.New("node description missing kind")
	ErrMissingNodeID   = errors.New("node description missing ID")
	ErrInvalidPortType = errors.New("port description type must be data or exec")

	// Action description errors
	ErrAmbiguousAction = errors.New("action entry has both a method and a submenu")
	ErrEmptyAction     = errors.New("action entry has neither a method nor a submenu")

	// Filter validation errors
	ErrInvalidLimit     = errors.New("limit cannot be negative")
	ErrInvalidOffset    = errors.New("offset cannot be negative")
	ErrInvalidTimeRange = errors.New("invalid time range: since is after before")
)

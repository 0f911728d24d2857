package dto

import "errors"

var (
	// ErrMissingFlowID indicates a request without a flow identifier.
	ErrMissingFlowID = errors.New("flow_id is required")

	// ErrMissingNodeID indicates a request without a node identifier.
	ErrMissingNodeID = errors.New("node_id is required")

	// ErrMissingName indicates a request without a flow name.
	ErrMissingName = errors.New("name is required")

	// ErrInvalidInputIndex indicates a negative input index.
	ErrInvalidInputIndex = errors.New("input_index must not be negative")

	// ErrMissingActionPath indicates an action request without a path.
	ErrMissingActionPath = errors.New("action path is required")
)

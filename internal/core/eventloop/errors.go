package eventloop

import "errors"

var (
	// ErrLoopClosed indicates the loop no longer accepts events.
	ErrLoopClosed = errors.New("event loop is closed")

	// ErrNilEvent indicates a nil event was posted.
	ErrNilEvent = errors.New("event must not be nil")

	// ErrTimeout indicates the queue stayed full past the configured timeout.
	ErrTimeout = errors.New("timed out posting event")
)

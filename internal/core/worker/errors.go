package worker

import "errors"

var (
	// ErrWorkerStopped indicates the worker no longer accepts tasks.
	ErrWorkerStopped = errors.New("worker is stopped")

	// ErrNilTask indicates a nil task was submitted.
	ErrNilTask = errors.New("task must not be nil")

	// ErrQueueFull indicates the worker's task queue is at capacity.
	ErrQueueFull = errors.New("worker queue is full")
)

// Package worker runs node-owned background tasks. A node whose behavior
// needs time (clocks, pollers, slow IO) spawns a Worker; the worker does its
// work off the flow thread and marshals results back by posting events to
// the flow's event loop. Workers are stopped when their owning node is
// removed from the flow.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nodeflow/nodeflow/internal/core/eventloop"
)

// Task is executed on the worker goroutine. The returned event, if non-nil,
// is posted to the loop for on-thread delivery.
type Task func(ctx context.Context) eventloop.Event

// Worker owns one goroutine that executes submitted tasks in order.
// PRINCIPLES:
// - Results cross back to the flow thread only via the event loop
// - Stop is idempotent and bounded by the caller's context
type Worker struct {
	loop   *eventloop.Loop
	logger *slog.Logger

	tasks  chan Task
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
}

// New creates and starts a worker delivering results to loop.
func New(loop *eventloop.Loop, logger *slog.Logger, queueSize int) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		loop:   loop,
		logger: logger,
		tasks:  make(chan Task, queueSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.tasks:
			w.execute(ctx, task)
		}
	}
}

func (w *Worker) execute(ctx context.Context, task Task) {
	ev := task(ctx)
	if ev == nil {
		return
	}
	if err := w.loop.Post(ctx, ev); err != nil {
		w.logger.Warn("dropping worker result", "error", err)
	}
}

// Submit queues a task for execution. It returns ErrWorkerStopped after Stop.
func (w *Worker) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrWorkerStopped
	}
	select {
	case w.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop cancels the worker and waits for its goroutine to exit, bounded by ctx.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.mu.Unlock()

	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ticker runs fn on the worker at every interval until the worker stops or
// the returned stop function is called.
func (w *Worker) Ticker(interval time.Duration, fn Task) (stop func()) {
	tickCtx, tickCancel := context.WithCancel(context.Background())
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-w.done:
				return
			case <-t.C:
				if err := w.Submit(fn); err != nil {
					if err == ErrWorkerStopped {
						return
					}
					w.logger.Warn("tick skipped", "error", err)
				}
			}
		}
	}()
	return tickCancel
}

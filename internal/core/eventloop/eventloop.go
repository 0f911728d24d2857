// Package eventloop provides the single logical thread the flow core runs
// on. All update triggers and structural edits that originate off-thread
// (HTTP handlers, node-owned workers) are posted here and executed by one
// consumer goroutine, which keeps the propagation protocol free of locks.
package eventloop

import (
	"context"
	"sync"
	"time"

	"github.com/nodeflow/nodeflow/internal/infrastructure/metrics"
)

// Event is one unit of work executed on the loop.
type Event func()

// Config holds loop settings. Zero values mean built-in defaults.
type Config struct {
	QueueSize int           // buffered event capacity
	Timeout   time.Duration // default Post timeout when the queue is full
}

// Loop is a buffered, single-consumer event queue.
// PRINCIPLES:
// - SRP: Only responsible for ordering and delivering events
// - Thread-safe: Post may be called from any goroutine
type Loop struct {
	events  chan Event
	timeout time.Duration

	closed bool
	mu     sync.RWMutex

	done chan struct{}
}

// New creates a loop and starts its consumer goroutine.
func New(config Config) *Loop {
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	l := &Loop{
		events:  make(chan Event, config.QueueSize),
		timeout: config.Timeout,
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

// Default creates a loop with default settings.
func Default() *Loop { return New(Config{}) }

func (l *Loop) run() {
	defer close(l.done)
	for ev := range l.events {
		metrics.SetLoopPending(len(l.events))
		ev()
	}
}

// Post enqueues an event. It blocks until the event is queued, the context
// is done, or the loop's timeout elapses.
//
// The read lock is held across the send: Close closes the channel under the
// write lock, so a send can never race the close. The consumer drains
// without taking the lock, so blocked senders always make progress.
func (l *Loop) Post(ctx context.Context, ev Event) error {
	if ev == nil {
		return ErrNilEvent
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrLoopClosed
	}

	select {
	case l.events <- ev:
		metrics.IncEventsPosted()
		return nil
	case <-ctx.Done():
		metrics.IncEventsDropped()
		return ctx.Err()
	case <-time.After(l.timeout):
		metrics.IncEventsDropped()
		return ErrTimeout
	}
}

// Sync posts an event and waits until the loop has executed it. Useful for
// callers that need a result computed on the loop thread.
func (l *Loop) Sync(ctx context.Context, ev Event) error {
	ran := make(chan struct{})
	if err := l.Post(ctx, func() {
		defer close(ran)
		ev()
	}); err != nil {
		return err
	}
	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of queued events.
func (l *Loop) Len() int { return len(l.events) }

// IsClosed reports whether the loop accepts further events.
func (l *Loop) IsClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// Close stops intake and waits for queued events to drain.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.events)
	l.mu.Unlock()

	<-l.done
	return nil
}

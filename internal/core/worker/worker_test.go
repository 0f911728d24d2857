package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/internal/core/eventloop"
)

func TestWorker_ResultDeliveredViaLoop(t *testing.T) {
	loop := eventloop.Default()
	defer loop.Close()
	w := New(loop, nil, 8)
	defer w.Stop(context.Background())

	var onLoop atomic.Bool
	require.NoError(t, w.Submit(func(ctx context.Context) eventloop.Event {
		return func() { onLoop.Store(true) }
	}))

	assert.Eventually(t, onLoop.Load, time.Second, 5*time.Millisecond)
}

func TestWorker_NilResultPostsNothing(t *testing.T) {
	loop := eventloop.Default()
	defer loop.Close()
	w := New(loop, nil, 8)
	defer w.Stop(context.Background())

	ran := make(chan struct{})
	require.NoError(t, w.Submit(func(ctx context.Context) eventloop.Event {
		close(ran)
		return nil
	}))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestWorker_SubmitAfterStop(t *testing.T) {
	loop := eventloop.Default()
	defer loop.Close()
	w := New(loop, nil, 8)
	require.NoError(t, w.Stop(context.Background()))

	err := w.Submit(func(ctx context.Context) eventloop.Event { return nil })
	assert.ErrorIs(t, err, ErrWorkerStopped)
}

func TestWorker_StopIsIdempotent(t *testing.T) {
	loop := eventloop.Default()
	defer loop.Close()
	w := New(loop, nil, 8)

	require.NoError(t, w.Stop(context.Background()))
	require.NoError(t, w.Stop(context.Background()))
}

func TestWorker_NilTask(t *testing.T) {
	loop := eventloop.Default()
	defer loop.Close()
	w := New(loop, nil, 8)
	defer w.Stop(context.Background())

	assert.ErrorIs(t, w.Submit(nil), ErrNilTask)
}

func TestWorker_Ticker(t *testing.T) {
	loop := eventloop.Default()
	defer loop.Close()
	w := New(loop, nil, 64)
	defer w.Stop(context.Background())

	var ticks atomic.Int64
	stop := w.Ticker(5*time.Millisecond, func(ctx context.Context) eventloop.Event {
		return func() { ticks.Add(1) }
	})
	defer stop()

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestWorker_TickerStopsWithWorker(t *testing.T) {
	loop := eventloop.Default()
	defer loop.Close()
	w := New(loop, nil, 64)

	var ticks atomic.Int64
	w.Ticker(5*time.Millisecond, func(ctx context.Context) eventloop.Event {
		return func() { ticks.Add(1) }
	})

	require.NoError(t, w.Stop(context.Background()))
	// Drain events posted before the stop landed.
	require.NoError(t, loop.Sync(context.Background(), func() {}))
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}

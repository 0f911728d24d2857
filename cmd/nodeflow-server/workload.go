package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nodeflow/nodeflow/internal/app/dto"
	"github.com/nodeflow/nodeflow/internal/app/usecases"
)

// workloadManager drives synthetic propagation load for observing the
// metrics endpoints under traffic. One workload at a time.
type workloadManager struct {
	mu      sync.Mutex
	session *usecases.Session
	cancel  context.CancelFunc
}

func (m *workloadManager) start(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		http.Error(w, "propagation workload already running", http.StatusConflict)
		return
	}
	rate := 50 * time.Millisecond
	if v := r.URL.Query().Get("rate_ms"); v != "" {
		if ms, err := time.ParseDuration(v + "ms"); err == nil {
			rate = ms
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := m.run(ctx, rate); err != nil {
		cancel()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	m.cancel = cancel
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprintf(w, "propagation workload started at %v\n", rate)
}

func (m *workloadManager) stop(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "propagation workload stopped\n")
}

// run builds a const->add chain on a dedicated flow and pushes a fresh value
// through it on every tick until ctx is cancelled. The flow is closed on the
// way out.
func (m *workloadManager) run(ctx context.Context, rate time.Duration) error {
	s := m.session

	created, err := s.CreateFlow(ctx, &dto.CreateFlowRequest{Name: "workload"})
	if err != nil {
		return fmt.Errorf("create workload flow: %w", err)
	}
	src, err := s.SpawnNode(ctx, &dto.SpawnNodeRequest{FlowID: created.ID, Kind: "std.const"})
	if err != nil {
		return fmt.Errorf("spawn source: %w", err)
	}
	sink, err := s.SpawnNode(ctx, &dto.SpawnNodeRequest{FlowID: created.ID, Kind: "std.add"})
	if err != nil {
		return fmt.Errorf("spawn sink: %w", err)
	}
	if err := s.Connect(ctx, &dto.EdgeRequest{
		FlowID: created.ID, OutNode: src.ID, OutPort: 0, InNode: sink.ID, InPort: 0,
	}); err != nil {
		return fmt.Errorf("connect workload chain: %w", err)
	}

	go func() {
		ticker := time.NewTicker(rate)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-ctx.Done():
				_ = s.CloseFlow(context.Background(), created.ID)
				return
			case <-ticker.C:
				i++
				_ = s.SetInput(ctx, &dto.SetInputRequest{
					FlowID: created.ID, NodeID: src.ID, InputIndex: 0, Value: i,
				})
			}
		}
	}()
	return nil
}

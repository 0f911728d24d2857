// Package live holds the flows a process is currently hosting. Unlike the
// document stores this is not persistence: entries are live object graphs
// that disappear with the process.
package live

import (
	"sync"

	"github.com/nodeflow/nodeflow/internal/core/flow"
)

// Registry is a thread-safe set of hosted flows keyed by flow ID.
// PRINCIPLES:
// - SRP: Only responsible for lookup of live flows
// - Thread-safe
type Registry struct {
	mu    sync.RWMutex
	flows map[string]*flow.Flow
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{flows: make(map[string]*flow.Flow)}
}

// Put registers a flow, replacing any previous flow with the same ID.
func (r *Registry) Put(f *flow.Flow) error {
	if f == nil {
		return flow.ErrNilFlow
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[f.ID()] = f
	return nil
}

// Get looks up a hosted flow.
func (r *Registry) Get(id string) (*flow.Flow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flows[id]
	if !ok {
		return nil, flow.ErrFlowNotFound
	}
	return f, nil
}

// Remove drops a flow from the registry.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flows[id]; !ok {
		return flow.ErrFlowNotFound
	}
	delete(r.flows, id)
	return nil
}

// All returns the hosted flows in unspecified order.
func (r *Registry) All() []*flow.Flow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*flow.Flow, 0, len(r.flows))
	for _, f := range r.flows {
		out = append(out, f)
	}
	return out
}

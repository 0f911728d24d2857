package node

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the node kinds known to a runtime. Restore resolves the
// node_kind identity of a persisted description through a registry.
// PRINCIPLES:
// - SRP: Only responsible for kind lookup
// - Thread-safe: kinds may be registered while flows are loading
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Kind
}

// NewRegistry creates an empty kind registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// Register adds a kind to the registry.
func (r *Registry) Register(k *Kind) error {
	if err := k.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.kinds[k.Name]; exists {
		return fmt.Errorf("kind %q: %w", k.Name, ErrDuplicateKind)
	}
	r.kinds[k.Name] = k
	return nil
}

// Get returns the kind registered under name.
func (r *Registry) Get(name string) (*Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, exists := r.kinds[name]
	if !exists {
		return nil, fmt.Errorf("kind %q: %w", name, ErrKindNotFound)
	}
	return k, nil
}

// Names returns the registered kind names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

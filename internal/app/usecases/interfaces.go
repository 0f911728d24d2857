package usecases

import (
	"github.com/nodeflow/nodeflow/internal/core/flow"
)

// FlowRegistry tracks the flows a session is hosting.
// PRINCIPLES:
// - SRP: Only responsible for live flow lookup
// - DIP: Used for dependency injection
type FlowRegistry interface {
	Put(f *flow.Flow) error
	Get(id string) (*flow.Flow, error)
	Remove(id string) error
	All() []*flow.Flow
}

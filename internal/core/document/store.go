// Package document provides document persistence interfaces
package document

import (
	"context"
	"time"
)

// Store interface for flow document persistence (DIP - Dependency Inversion)
// PRINCIPLES:
// - ISP: Interface segregation with ≤5 methods
// - DIP: Core domain depends on interface, not implementations
type Store interface {
	// Save persists a document
	Save(ctx context.Context, doc *Document) error

	// Load retrieves a document by ID
	Load(ctx context.Context, id string) (*Document, error)

	// List returns documents matching the filter
	List(ctx context.Context, filter Filter) ([]*Document, error)

	// Delete removes a document by ID
	Delete(ctx context.Context, id string) error
}

// Filter for document queries
type Filter struct {
	FlowID string     `json:"flow_id,omitempty"`
	Name   string     `json:"name,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
	Since  *time.Time `json:"since,omitempty"`
	Before *time.Time `json:"before,omitempty"`
	Tags   []string   `json:"tags,omitempty"`
}

// Validate ensures filter parameters are valid
func (f *Filter) Validate() error {
	if f.Limit < 0 {
		return ErrInvalidLimit
	}
	if f.Offset < 0 {
		return ErrInvalidOffset
	}
	if f.Since != nil && f.Before != nil && f.Since.After(*f.Before) {
		return ErrInvalidTimeRange
	}
	return nil
}

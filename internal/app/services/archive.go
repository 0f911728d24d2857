// Package services holds application services sitting between the use cases
// and the storage adapters.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nodeflow/nodeflow/internal/core/document"
	"github.com/nodeflow/nodeflow/pkg/validation"
)

// Archive persists flow documents. Beyond delegating to the store it stamps
// save time and version and runs structural validation, so malformed
// documents never reach an adapter.
// PRINCIPLES:
// - SRP: Manages document persistence policy
// - DIP: Depends on the document.Store abstraction
type Archive struct {
	store  document.Store
	logger *slog.Logger
}

// NewArchive creates an archive over the given store.
func NewArchive(store document.Store, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{store: store, logger: logger}
}

// Save validates and persists a document, stamping SavedAt and Version.
func (a *Archive) Save(ctx context.Context, doc *document.Document) error {
	if doc == nil {
		return document.ErrInvalidDocumentID
	}
	doc.SavedAt = time.Now().UTC()
	if doc.Version == "" {
		doc.Version = "1.0"
	}
	if doc.Metadata.Source == "" {
		doc.Metadata.Source = "session"
	}

	if err := validation.Document(doc); err != nil {
		return fmt.Errorf("document rejected: %w", err)
	}
	if err := a.store.Save(ctx, doc); err != nil {
		return err
	}
	a.logger.Info("document saved", "document_id", doc.ID, "flow_id", doc.FlowID,
		"nodes", len(doc.Nodes), "connections", len(doc.Connections))
	return nil
}

// Load retrieves a document and re-validates it before handing it out;
// stores can hold documents written by older or foreign tools.
func (a *Archive) Load(ctx context.Context, id string) (*document.Document, error) {
	doc, err := a.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Document(doc); err != nil {
		return nil, fmt.Errorf("stored document invalid: %w", err)
	}
	return doc, nil
}

// List returns matching documents.
func (a *Archive) List(ctx context.Context, filter document.Filter) ([]*document.Document, error) {
	return a.store.List(ctx, filter)
}

// Delete removes a document.
func (a *Archive) Delete(ctx context.Context, id string) error {
	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	a.logger.Info("document deleted", "document_id", id)
	return nil
}

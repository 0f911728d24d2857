// Package memory provides an in-process document store. Documents are held
// as serialized blobs so that loads return independent copies, with TTL
// expiry and LRU eviction when the entry cap is reached.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nodeflow/nodeflow/internal/core/document"
	"github.com/nodeflow/nodeflow/internal/infrastructure/metrics"
	"github.com/nodeflow/nodeflow/pkg/serialization"
)

const adapterName = "memory"

// Config holds store settings. Zero values mean built-in defaults.
type Config struct {
	TTL        time.Duration // entry lifetime; 0 means 24h
	MaxEntries int           // LRU cap; 0 means 1024
	Pipeline   *serialization.Pipeline
}

// entry keeps the filterable fields detached from the caller's document so
// that later mutations of the saved value cannot leak into query results.
type entry struct {
	flowID     string
	name       string
	savedAt    time.Time
	tags       []string
	blob       []byte
	expiresAt  time.Time
	accessedAt time.Time
}

// Store implements document.Store in memory.
// PRINCIPLES:
// - Loads never alias saved documents; everything round-trips through bytes
// - Thread-safe under a single mutex
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	ttl        time.Duration
	maxEntries int
	pipeline   *serialization.Pipeline
}

// New creates a memory store.
func New(config Config) *Store {
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 1024
	}
	if config.Pipeline == nil {
		config.Pipeline = serialization.Default()
	}
	return &Store{
		entries:    make(map[string]*entry),
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
		pipeline:   config.Pipeline,
	}
}

// Default creates a memory store with default settings.
func Default() *Store { return New(Config{}) }

// Save stores a document, evicting the least recently used entry when full.
func (s *Store) Save(_ context.Context, doc *document.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("document validation failed: %w", err)
	}
	blob, err := s.pipeline.Marshal(doc)
	if err != nil {
		return fmt.Errorf("document serialization failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, replacing := s.entries[doc.ID]; !replacing && len(s.entries) >= s.maxEntries {
		s.evictOldest()
	}

	now := time.Now()
	s.entries[doc.ID] = &entry{
		flowID:     doc.FlowID,
		name:       doc.Name,
		savedAt:    doc.SavedAt,
		tags:       append([]string(nil), doc.Metadata.Tags...),
		blob:       blob,
		expiresAt:  now.Add(s.ttl),
		accessedAt: now,
	}
	metrics.DocumentSaved(adapterName)
	return nil
}

// Load retrieves a document by ID.
func (s *Store) Load(_ context.Context, id string) (*document.Document, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok && time.Now().After(e.expiresAt) {
		delete(s.entries, id)
		ok = false
	}
	if ok {
		e.accessedAt = time.Now()
	}
	s.mu.Unlock()

	if !ok {
		return nil, document.ErrDocumentNotFound
	}

	var doc document.Document
	if err := s.pipeline.Unmarshal(e.blob, &doc); err != nil {
		return nil, fmt.Errorf("document deserialization failed: %w", err)
	}
	metrics.DocumentLoaded(adapterName)
	return &doc, nil
}

// List returns documents matching the filter, newest first.
func (s *Store) List(_ context.Context, filter document.Filter) ([]*document.Document, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}

	s.mu.Lock()
	now := time.Now()
	var candidates []*entry
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			continue
		}
		if matches(e, filter) {
			candidates = append(candidates, e)
		}
	}
	s.mu.Unlock()

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].savedAt.After(candidates[j].savedAt)
	})
	candidates = paginate(candidates, filter)

	// Results decode from the stored blobs, same as Load, so they never
	// alias the documents callers passed to Save.
	docs := make([]*document.Document, 0, len(candidates))
	for _, e := range candidates {
		var doc document.Document
		if err := s.pipeline.Unmarshal(e.blob, &doc); err != nil {
			return nil, fmt.Errorf("document deserialization failed: %w", err)
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

// Delete removes a document by ID.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return document.ErrDocumentNotFound
	}
	delete(s.entries, id)
	return nil
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close releases resources. Memory stores hold none.
func (s *Store) Close() error { return nil }

// evictOldest drops the least recently accessed entry. Caller holds the lock.
func (s *Store) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.entries {
		if oldestID == "" || e.accessedAt.Before(oldest) {
			oldestID = id
			oldest = e.accessedAt
		}
	}
	if oldestID != "" {
		delete(s.entries, oldestID)
		metrics.StoreEvicted(adapterName, 1)
	}
}

func matches(e *entry, filter document.Filter) bool {
	if filter.FlowID != "" && e.flowID != filter.FlowID {
		return false
	}
	if filter.Name != "" && e.name != filter.Name {
		return false
	}
	if filter.Since != nil && e.savedAt.Before(*filter.Since) {
		return false
	}
	if filter.Before != nil && !e.savedAt.Before(*filter.Before) {
		return false
	}
	for _, want := range filter.Tags {
		found := false
		for _, tag := range e.tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func paginate(entries []*entry, filter document.Filter) []*entry {
	if filter.Offset > 0 {
		if filter.Offset >= len(entries) {
			return nil
		}
		entries = entries[filter.Offset:]
	}
	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries
}

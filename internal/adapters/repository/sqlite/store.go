// Package sqlite provides a document store on SQLite via modernc.org/sqlite
// (pure Go, no cgo). Suitable for desktop installs and single-process
// servers; the node blobs are stored serialized, with the fields the List
// filter needs broken out into indexed columns.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/nodeflow/nodeflow/internal/core/document"
	"github.com/nodeflow/nodeflow/internal/infrastructure/metrics"
	"github.com/nodeflow/nodeflow/pkg/serialization"
)

const adapterName = "sqlite"

// Store implements document.Store on a SQLite database.
type Store struct {
	db       *sql.DB
	pipeline *serialization.Pipeline
	table    string
}

// Open opens (or creates) a SQLite database at path and prepares the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	s := New(db, serialization.Default())
	if err := s.CreateTables(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. The caller owns schema setup
// unless it calls CreateTables.
func New(db *sql.DB, pipeline *serialization.Pipeline) *Store {
	if pipeline == nil {
		pipeline = serialization.Default()
	}
	return &Store{db: db, pipeline: pipeline, table: "flow_documents"}
}

// WithTable overrides the table name. Only alphanumerics and underscores are
// accepted, to keep identifiers out of injection territory.
func (s *Store) WithTable(name string) *Store {
	if isSafeIdent(name) {
		s.table = name
	}
	return s
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		return false
	}
	return true
}

// CreateTables prepares the schema.
func (s *Store) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			flow_id TEXT NOT NULL,
			name TEXT NOT NULL,
			body BLOB NOT NULL,
			metadata TEXT,
			saved_at INTEGER NOT NULL,
			version TEXT NOT NULL DEFAULT '1.0'
		);

		CREATE INDEX IF NOT EXISTS idx_%s_flow_id ON %s (flow_id);
		CREATE INDEX IF NOT EXISTS idx_%s_saved_at ON %s (saved_at);
	`, s.table, s.table, s.table, s.table, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Save upserts a document.
func (s *Store) Save(ctx context.Context, doc *document.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("document validation failed: %w", err)
	}
	body, err := s.pipeline.Marshal(doc)
	if err != nil {
		return fmt.Errorf("document serialization failed: %w", err)
	}
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("metadata serialization failed: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (id, flow_id, name, body, metadata, saved_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.table)

	_, err = s.db.ExecContext(ctx, query,
		doc.ID, doc.FlowID, doc.Name, body, string(meta), doc.SavedAt.Unix(), doc.Version)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	metrics.DocumentSaved(adapterName)
	return nil
}

// Load retrieves a document by ID.
func (s *Store) Load(ctx context.Context, id string) (*document.Document, error) {
	if id == "" {
		return nil, document.ErrInvalidDocumentID
	}

	query := fmt.Sprintf("SELECT body FROM %s WHERE id = ?", s.table)
	var body []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	var doc document.Document
	if err := s.pipeline.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("document deserialization failed: %w", err)
	}
	metrics.DocumentLoaded(adapterName)
	return &doc, nil
}

// List returns documents matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter document.Filter) ([]*document.Document, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}

	query, args := s.buildListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		var doc document.Document
		if err := s.pipeline.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("document deserialization failed: %w", err)
		}
		if !matchesTags(&doc, filter.Tags) {
			continue
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// Delete removes a document by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return document.ErrInvalidDocumentID
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return document.ErrDocumentNotFound
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) buildListQuery(filter document.Filter) (string, []interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT body FROM %s WHERE 1=1", s.table)
	args := make([]interface{}, 0, 4)

	if filter.FlowID != "" {
		b.WriteString(" AND flow_id = ?")
		args = append(args, filter.FlowID)
	}
	if filter.Name != "" {
		b.WriteString(" AND name = ?")
		args = append(args, filter.Name)
	}
	if filter.Since != nil {
		b.WriteString(" AND saved_at >= ?")
		args = append(args, filter.Since.Unix())
	}
	if filter.Before != nil {
		b.WriteString(" AND saved_at < ?")
		args = append(args, filter.Before.Unix())
	}

	b.WriteString(" ORDER BY saved_at DESC")

	if filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}
	return b.String(), args
}

// matchesTags filters on metadata tags after the fact; tags live inside the
// serialized body, not in a column.
func matchesTags(doc *document.Document, tags []string) bool {
	for _, want := range tags {
		found := false
		for _, tag := range doc.Metadata.Tags {
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

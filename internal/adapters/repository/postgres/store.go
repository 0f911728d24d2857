// Package postgres provides a document store on PostgreSQL via pgx. Meant
// for shared server deployments where many editor sessions save into one
// database; metadata goes to JSONB so tag filtering runs server-side.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nodeflow/nodeflow/internal/core/document"
	"github.com/nodeflow/nodeflow/internal/infrastructure/metrics"
	"github.com/nodeflow/nodeflow/pkg/serialization"
)

const adapterName = "postgres"

// Store implements document.Store on a pgx connection pool.
type Store struct {
	pool     *pgxpool.Pool
	pipeline *serialization.Pipeline
	table    string
}

// Connect dials the database and prepares the schema.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := New(pool, serialization.Default())
	if err := s.CreateTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool. The caller owns schema setup unless it calls
// CreateTables.
func New(pool *pgxpool.Pool, pipeline *serialization.Pipeline) *Store {
	if pipeline == nil {
		pipeline = serialization.Default()
	}
	return &Store{pool: pool, pipeline: pipeline, table: "flow_documents"}
}

// CreateTables prepares the schema.
func (s *Store) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			flow_id VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			body BYTEA NOT NULL,
			metadata JSONB,
			saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			version VARCHAR(50) NOT NULL DEFAULT '1.0'
		);

		CREATE INDEX IF NOT EXISTS idx_%s_flow_id ON %s (flow_id);
		CREATE INDEX IF NOT EXISTS idx_%s_saved_at ON %s (saved_at);
		CREATE INDEX IF NOT EXISTS idx_%s_metadata ON %s USING GIN (metadata);
	`, s.table, s.table, s.table, s.table, s.table, s.table, s.table)

	if _, err := s.pool.Exec(ctx, query); err != nil {
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
		INSERT INTO %s (id, flow_id, name, body, metadata, saved_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			flow_id = EXCLUDED.flow_id,
			name = EXCLUDED.name,
			body = EXCLUDED.body,
			metadata = EXCLUDED.metadata,
			saved_at = EXCLUDED.saved_at,
			version = EXCLUDED.version
	`, s.table)

	_, err = s.pool.Exec(ctx, query,
		doc.ID, doc.FlowID, doc.Name, body, meta, doc.SavedAt, doc.Version)
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

	query := fmt.Sprintf("SELECT body FROM %s WHERE id = $1", s.table)
	var body []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
	rows, err := s.pool.Query(ctx, query, args...)
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
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// Delete removes a document by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return document.ErrInvalidDocumentID
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table)
	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return document.ErrDocumentNotFound
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) buildListQuery(filter document.Filter) (string, []interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT body FROM %s WHERE 1=1", s.table)
	args := make([]interface{}, 0, 5)
	arg := func(v interface{}) int {
		args = append(args, v)
		return len(args)
	}

	if filter.FlowID != "" {
		fmt.Fprintf(&b, " AND flow_id = $%d", arg(filter.FlowID))
	}
	if filter.Name != "" {
		fmt.Fprintf(&b, " AND name = $%d", arg(filter.Name))
	}
	if filter.Since != nil {
		fmt.Fprintf(&b, " AND saved_at >= $%d", arg(*filter.Since))
	}
	if filter.Before != nil {
		fmt.Fprintf(&b, " AND saved_at < $%d", arg(*filter.Before))
	}
	if len(filter.Tags) > 0 {
		// JSONB containment on the tags array.
		tags, _ := json.Marshal(map[string]interface{}{"tags": filter.Tags})
		fmt.Fprintf(&b, " AND metadata @> $%d", arg(string(tags)))
	}

	b.WriteString(" ORDER BY saved_at DESC")

	if filter.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT $%d", arg(filter.Limit))
	}
	if filter.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET $%d", arg(filter.Offset))
	}
	return b.String(), args
}

package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nodeflow/nodeflow/internal/core/document"
)

// Query building is tested without a live database; the round-trip behavior
// itself is covered by integration tests run against a real instance.

func TestBuildListQuery_NoFilter(t *testing.T) {
	s := &Store{table: "flow_documents"}
	query, args := s.buildListQuery(document.Filter{})

	assert.Equal(t, "SELECT body FROM flow_documents WHERE 1=1 ORDER BY saved_at DESC", query)
	assert.Empty(t, args)
}

func TestBuildListQuery_AllFilters(t *testing.T) {
	s := &Store{table: "flow_documents"}
	since := time.Now().Add(-time.Hour)
	before := time.Now()

	query, args := s.buildListQuery(document.Filter{
		FlowID: "f1",
		Name:   "main",
		Since:  &since,
		Before: &before,
		Tags:   []string{"prod"},
		Limit:  10,
		Offset: 5,
	})

	assert.Contains(t, query, "flow_id = $1")
	assert.Contains(t, query, "name = $2")
	assert.Contains(t, query, "saved_at >= $3")
	assert.Contains(t, query, "saved_at < $4")
	assert.Contains(t, query, "metadata @> $5")
	assert.Contains(t, query, "LIMIT $6")
	assert.Contains(t, query, "OFFSET $7")
	assert.Len(t, args, 7)
}

func TestBuildListQuery_TagContainment(t *testing.T) {
	s := &Store{table: "flow_documents"}
	_, args := s.buildListQuery(document.Filter{Tags: []string{"prod", "v2"}})

	assert.Len(t, args, 1)
	assert.JSONEq(t, `{"tags":["prod","v2"]}`, args[0].(string))
}

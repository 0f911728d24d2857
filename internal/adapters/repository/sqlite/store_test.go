package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/internal/core/document"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "flows.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func saved(id, flowID, name string, at time.Time, tags ...string) *document.Document {
	return &document.Document{
		ID:     id,
		FlowID: flowID,
		Name:   name,
		Nodes: []document.NodeDescription{
			{ID: "n1", Kind: "const", StateData: map[string]interface{}{}},
		},
		Metadata: document.Metadata{Tags: tags},
		SavedAt:  at,
		Version:  "1.0",
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, saved("d1", "f1", "main", time.Now().UTC())))

	got, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "main", got.Name)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, "const", got.Nodes[0].Kind)
}

func TestStore_SaveIsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, saved("d1", "f1", "old", time.Now())))
	require.NoError(t, s.Save(ctx, saved("d1", "f1", "new", time.Now())))

	got, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
}

func TestStore_LoadMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, document.ErrDocumentNotFound)

	_, err = s.Load(context.Background(), "")
	assert.ErrorIs(t, err, document.ErrInvalidDocumentID)
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, saved("d1", "f1", "main", time.Now())))

	require.NoError(t, s.Delete(ctx, "d1"))
	assert.ErrorIs(t, s.Delete(ctx, "d1"), document.ErrDocumentNotFound)
}

func TestStore_ListFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.Save(ctx, saved("d1", "f1", "alpha", base.Add(-2*time.Hour), "prod")))
	require.NoError(t, s.Save(ctx, saved("d2", "f1", "beta", base.Add(-time.Hour))))
	require.NoError(t, s.Save(ctx, saved("d3", "f2", "alpha", base, "prod")))

	tests := []struct {
		name    string
		filter  document.Filter
		wantIDs []string
	}{
		{"all newest first", document.Filter{}, []string{"d3", "d2", "d1"}},
		{"by flow", document.Filter{FlowID: "f1"}, []string{"d2", "d1"}},
		{"by name", document.Filter{Name: "alpha"}, []string{"d3", "d1"}},
		{"by tag", document.Filter{Tags: []string{"prod"}}, []string{"d3", "d1"}},
		{"since", document.Filter{Since: timePtr(base.Add(-time.Hour))}, []string{"d3", "d2"}},
		{"before", document.Filter{Before: timePtr(base.Add(-time.Hour))}, []string{"d1"}},
		{"limit and offset", document.Filter{Limit: 1, Offset: 1}, []string{"d2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, d := range got {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStore_WithTableRejectsUnsafeNames(t *testing.T) {
	s := openTestStore(t)
	s.WithTable("flows; DROP TABLE flow_documents")
	assert.Equal(t, "flow_documents", s.table)

	s.WithTable("custom_flows")
	assert.Equal(t, "custom_flows", s.table)
}

func timePtr(t time.Time) *time.Time { return &t }

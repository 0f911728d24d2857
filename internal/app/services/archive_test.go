package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/internal/adapters/repository/memory"
	"github.com/nodeflow/nodeflow/internal/core/document"
)

func validDoc() *document.Document {
	return &document.Document{
		ID:     "d1",
		FlowID: "f1",
		Name:   "main",
		Nodes: []document.NodeDescription{
			{ID: "n1", Kind: "const", StateData: map[string]interface{}{},
				Outputs: []document.PortDescription{{Type: document.PortTypeData, Label: "v"}}},
		},
	}
}

func TestArchive_SaveStampsAndPersists(t *testing.T) {
	a := NewArchive(memory.Default(), nil)
	ctx := context.Background()

	doc := validDoc()
	require.NoError(t, a.Save(ctx, doc))
	assert.False(t, doc.SavedAt.IsZero())
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, "session", doc.Metadata.Source)

	got, err := a.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "main", got.Name)
}

func TestArchive_SaveRejectsStructurallyInvalid(t *testing.T) {
	a := NewArchive(memory.Default(), nil)

	doc := validDoc()
	doc.Connections = []document.ConnectionDescription{
		{OutNode: "ghost", OutPort: 0, InNode: "n1", InPort: 0},
	}
	err := a.Save(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document rejected")
}

func TestArchive_SaveNil(t *testing.T) {
	a := NewArchive(memory.Default(), nil)
	assert.Error(t, a.Save(context.Background(), nil))
}

func TestArchive_ListAndDelete(t *testing.T) {
	a := NewArchive(memory.Default(), nil)
	ctx := context.Background()
	require.NoError(t, a.Save(ctx, validDoc()))

	docs, err := a.List(ctx, document.Filter{FlowID: "f1"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, a.Delete(ctx, "d1"))
	_, err = a.Load(ctx, "d1")
	assert.ErrorIs(t, err, document.ErrDocumentNotFound)
}

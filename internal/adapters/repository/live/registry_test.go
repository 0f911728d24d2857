package live

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/internal/core/flow"
)

func TestRegistry_PutGetRemove(t *testing.T) {
	r := NewRegistry()
	f := flow.New("demo", slog.Default())

	require.NoError(t, r.Put(f))

	got, err := r.Get(f.ID())
	require.NoError(t, err)
	assert.Same(t, f, got)

	require.NoError(t, r.Remove(f.ID()))
	_, err = r.Get(f.ID())
	assert.ErrorIs(t, err, flow.ErrFlowNotFound)
	assert.ErrorIs(t, r.Remove(f.ID()), flow.ErrFlowNotFound)
}

func TestRegistry_PutNil(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Put(nil), flow.ErrNilFlow)
}

func TestRegistry_All(t *testing.T) {
	r := NewRegistry()
	f1 := flow.New("a", slog.Default())
	f2 := flow.New("b", slog.Default())
	require.NoError(t, r.Put(f1))
	require.NoError(t, r.Put(f2))

	assert.Len(t, r.All(), 2)
}

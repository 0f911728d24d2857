package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/internal/core/port"
	"github.com/nodeflow/nodeflow/pkg/serialization"
)

func counterKind(hits *map[string]any) *Kind {
	return &Kind{
		Name:   "counter",
		Inputs: []PortTemplate{{Kind: port.KindExec, Label: "count"}},
		Actions: map[string]ActionFunc{
			"reset": func(n *Instance, data any) error {
				(*hits)["reset"] = data
				return nil
			},
			"set": func(n *Instance, data any) error {
				(*hits)["set"] = data
				return nil
			},
		},
	}
}

func TestInvokeSpecialAction_LeafAndSubmenu(t *testing.T) {
	hits := map[string]any{}
	n, err := New(counterKind(&hits), nil)
	require.NoError(t, err)

	n.SetSpecialAction("reset", &Action{Method: "reset"})
	n.SetSpecialAction("edit", &Action{Submenu: map[string]*Action{
		"set to ten": {Method: "set", Data: 10},
	}})

	require.NoError(t, n.InvokeSpecialAction("reset"))
	assert.Contains(t, hits, "reset")
	assert.Nil(t, hits["reset"])

	require.NoError(t, n.InvokeSpecialAction("edit", "set to ten"))
	assert.Equal(t, 10, hits["set"])

	assert.ErrorIs(t, n.InvokeSpecialAction("missing"), ErrActionNotFound)
	assert.ErrorIs(t, n.InvokeSpecialAction("reset", "deeper"), ErrNotSubmenu)
	assert.ErrorIs(t, n.InvokeSpecialAction("edit"), ErrNotSubmenu)
}

func TestInvokeSpecialAction_UnresolvedMethod(t *testing.T) {
	n, err := New(&Kind{Name: "bare"}, nil)
	require.NoError(t, err)

	n.SetSpecialAction("ghost", &Action{Method: "no_such_method"})
	assert.ErrorIs(t, n.InvokeSpecialAction("ghost"), ErrActionNotResolved)
}

func TestDefaultActions_ExecInputsAndRemove(t *testing.T) {
	n, err := New(&Kind{
		Name: "gate",
		Inputs: []PortTemplate{
			{Kind: port.KindData, Label: "v"},
			{Kind: port.KindExec, Label: "open"},
			{Kind: port.KindExec, Label: "close"},
		},
	}, nil)
	require.NoError(t, err)

	actions := n.DefaultActions()
	assert.Contains(t, actions, "remove")
	assert.Contains(t, actions, "exec input 1")
	assert.Contains(t, actions, "exec input 2")
	assert.NotContains(t, actions, "exec input 0", "data inputs get no trigger entry")
}

func TestInvokeDefaultAction_ExecInput(t *testing.T) {
	var got []int
	n, err := New(&Kind{
		Name:   "runner",
		Inputs: []PortTemplate{{Kind: port.KindExec, Label: "run"}},
		Update: func(n *Instance, inputIndex int) error {
			got = append(got, inputIndex)
			return nil
		},
	}, nil)
	require.NoError(t, err)

	require.NoError(t, n.InvokeDefaultAction("exec input 0"))
	assert.Equal(t, []int{0}, got)
}

func TestInvokeDefaultAction_Remove(t *testing.T) {
	n, err := New(&Kind{Name: "bare"}, nil)
	require.NoError(t, err)

	// Without a flow-installed handler the action fails to resolve.
	assert.ErrorIs(t, n.InvokeDefaultAction("remove"), ErrActionNotResolved)

	var removed *Instance
	n.SetRemoveHandler(func(target *Instance) { removed = target })
	require.NoError(t, n.InvokeDefaultAction("remove"))
	assert.Same(t, n, removed)
}

func TestSpecialActionsData_RoundTrip(t *testing.T) {
	hits := map[string]any{}
	n, err := New(counterKind(&hits), nil)
	require.NoError(t, err)

	n.SetSpecialAction("reset", &Action{Method: "reset"})
	n.SetSpecialAction("edit", &Action{Submenu: map[string]*Action{
		"set to ten": {Method: "set", Data: 10},
	}})

	data := n.SpecialActionsData()

	restored, err := New(counterKind(&hits), nil)
	require.NoError(t, err)
	restored.SetSpecialActionsData(data)

	require.NoError(t, restored.InvokeSpecialAction("edit", "set to ten"))
	assert.Equal(t, 10, hits["set"])
	require.NoError(t, restored.InvokeSpecialAction("reset"))
}

func TestSetSpecialActionsData_ExecInputIndexFromJSON(t *testing.T) {
	var got []int
	n, err := New(&Kind{
		Name:   "runner",
		Inputs: []PortTemplate{{Kind: port.KindExec, Label: "run"}},
		Update: func(n *Instance, inputIndex int) error {
			got = append(got, inputIndex)
			return nil
		},
	}, nil)
	require.NoError(t, err)

	// JSON decoding yields float64 indices; both forms must work.
	n.SetSpecialActionsData(map[string]interface{}{
		"fire": map[string]interface{}{
			"method": ActionExecInput,
			"data":   map[string]interface{}{"input_index": float64(0)},
		},
	})
	require.NoError(t, n.InvokeSpecialAction("fire"))
	assert.Equal(t, []int{0}, got)
}

func TestSetSpecialActionsData_ExecInputIndexFromMsgpack(t *testing.T) {
	var got []int
	runnerKind := &Kind{
		Name:   "runner",
		Inputs: []PortTemplate{{Kind: port.KindExec, Label: "run"}},
		Update: func(n *Instance, inputIndex int) error {
			got = append(got, inputIndex)
			return nil
		},
	}
	n, err := New(runnerKind, nil)
	require.NoError(t, err)
	n.SetSpecialAction("fire", &Action{
		Method: ActionExecInput,
		Data:   map[string]interface{}{"input_index": 0},
	})

	// The default store pipeline is msgpack, which decodes integers into
	// interface{} as machine-width ints rather than float64.
	blob, err := serialization.Default().Marshal(n.SpecialActionsData())
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, serialization.Default().Unmarshal(blob, &decoded))

	restored, err := New(runnerKind, nil)
	require.NoError(t, err)
	restored.SetSpecialActionsData(decoded)

	require.NoError(t, restored.InvokeSpecialAction("fire"))
	assert.Equal(t, []int{0}, got)
}

package node

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/internal/core/port"
)

// asInt normalizes numeric payloads for test kinds.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// addKind implements the reference scenario: sum = input(0) + input(1).
func addKind() *Kind {
	return &Kind{
		Name: "add",
		Inputs: []PortTemplate{
			{Kind: port.KindData, Label: "a", WidgetType: port.WidgetTypeValue, WidgetName: "a", WidgetPosition: port.WidgetPosUnder, WidgetDefault: 2},
			{Kind: port.KindData, Label: "b", WidgetType: port.WidgetTypeValue, WidgetName: "b", WidgetPosition: port.WidgetPosUnder, WidgetDefault: 3},
		},
		Outputs: []PortTemplate{{Kind: port.KindData, Label: "sum"}},
		Update: func(n *Instance, _ int) error {
			a, err := n.Input(0)
			if err != nil {
				return err
			}
			b, err := n.Input(1)
			if err != nil {
				return err
			}
			if err := n.SetOutputVal(0, asInt(a)+asInt(b)); err != nil {
				return err
			}
			n.DataOutputsUpdated()
			return nil
		},
	}
}

// recorder records every update it receives.
type recorder struct {
	updates []int
	values  []any
}

func recorderKind(p *recorder) *Kind {
	return &Kind{
		Name:   "recorder",
		Inputs: []PortTemplate{{Kind: port.KindData, Label: "in"}, {Kind: port.KindExec, Label: "run"}},
		Update: func(n *Instance, inputIndex int) error {
			p.updates = append(p.updates, inputIndex)
			v, err := n.Input(0)
			if err != nil {
				return err
			}
			p.values = append(p.values, v)
			return nil
		},
	}
}

func TestNew_PortsFromTemplates(t *testing.T) {
	n, err := New(addKind(), nil)
	require.NoError(t, err)

	assert.Equal(t, PhaseReady, n.Phase())
	require.Len(t, n.Inputs(), 2)
	require.Len(t, n.Outputs(), 1)
	assert.Equal(t, "a", n.Inputs()[0].Label())
	assert.True(t, n.Inputs()[0].HasWidget())
	assert.False(t, n.Outputs()[0].HasWidget())
}

func TestUpdate_AddScenario(t *testing.T) {
	add, err := New(addKind(), nil)
	require.NoError(t, err)

	rec := &recorder{}
	down, err := New(recorderKind(rec), nil)
	require.NoError(t, err)

	require.NoError(t, port.Connect(add.Outputs()[0], down.Inputs()[0]))

	add.Update(NoInput)

	v, err := down.Input(0)
	require.NoError(t, err)
	assert.Equal(t, 5, v, "defaults 2 and 3 must propagate as 5")
	assert.Equal(t, []int{0}, rec.updates, "downstream update carries the receiving input index")
}

func TestInput_EffectiveValuePrefersConnection(t *testing.T) {
	add, _ := New(addKind(), nil)
	src, _ := New(&Kind{Name: "src", Outputs: []PortTemplate{{Kind: port.KindData, Label: "v"}}}, nil)

	require.NoError(t, port.Connect(src.Outputs()[0], add.Inputs()[0]))
	require.NoError(t, src.SetOutputVal(0, 40))

	add.Update(NoInput)
	sum, err := add.Outputs()[0].Value()
	require.NoError(t, err)
	assert.Equal(t, 43, sum, "connected value 40 replaces widget default 2")
}

func TestExecOutput_FanOutCountAndIndices(t *testing.T) {
	src, err := New(&Kind{Name: "trigger", Outputs: []PortTemplate{{Kind: port.KindExec, Label: "out"}}}, nil)
	require.NoError(t, err)

	recs := make([]*recorder, 3)
	for i := range recs {
		recs[i] = &recorder{}
		down, err := New(recorderKind(recs[i]), nil)
		require.NoError(t, err)
		require.NoError(t, port.Connect(src.Outputs()[0], down.Inputs()[1]))
	}

	require.NoError(t, src.ExecOutput(0))

	for i, rec := range recs {
		assert.Equal(t, []int{1}, rec.updates, "receiver %d gets exactly one update on its exec input", i)
	}
}

func TestExecOutput_Errors(t *testing.T) {
	n, _ := New(addKind(), nil)
	assert.ErrorIs(t, n.ExecOutput(5), ErrPortIndexOutOfRange)
	assert.ErrorIs(t, n.ExecOutput(0), ErrNotExecPort)
}

func TestUpdate_FaultIsSwallowedAndSiblingsRun(t *testing.T) {
	// A source with two data outputs fanning to a failing node and a healthy
	// one. The failing branch must not prevent the sibling branch.
	src, err := New(&Kind{
		Name: "fanout",
		Outputs: []PortTemplate{
			{Kind: port.KindData, Label: "left"},
			{Kind: port.KindData, Label: "right"},
		},
		Update: func(n *Instance, _ int) error {
			_ = n.SetOutputVal(0, 1)
			_ = n.SetOutputVal(1, 2)
			n.DataOutputsUpdated()
			return nil
		},
	}, nil)
	require.NoError(t, err)

	boom, err := New(&Kind{
		Name:   "boom",
		Inputs: []PortTemplate{{Kind: port.KindData, Label: "in"}},
		Update: func(n *Instance, _ int) error {
			panic("node logic bug")
		},
	}, nil)
	require.NoError(t, err)

	rec := &recorder{}
	healthy, err := New(recorderKind(rec), nil)
	require.NoError(t, err)

	require.NoError(t, port.Connect(src.Outputs()[0], boom.Inputs()[0]))
	require.NoError(t, port.Connect(src.Outputs()[1], healthy.Inputs()[0]))

	assert.NotPanics(t, func() { src.Update(NoInput) })
	assert.Equal(t, []int{0}, rec.updates, "sibling branch still propagates")
	assert.Equal(t, []any{2}, rec.values)
}

func TestUpdate_ErrorReturnIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	n, err := New(&Kind{
		Name: "failing",
		Update: func(n *Instance, _ int) error {
			return errors.New("computation exploded")
		},
	}, logger)
	require.NoError(t, err)

	assert.NotPanics(t, func() { n.Update(NoInput) })
	assert.Contains(t, buf.String(), "computation exploded")
	assert.Contains(t, buf.String(), "failing")
}

func TestUpdate_IgnoredOutsideReady(t *testing.T) {
	rec := &recorder{}
	n, err := New(recorderKind(rec), nil)
	require.NoError(t, err)

	require.NoError(t, n.BeginRemoval(context.Background()))
	n.Update(0)
	assert.Empty(t, rec.updates, "update after BeginRemoval is a no-op")

	n.FinishRemoval()
	assert.Equal(t, PhaseDestroyed, n.Phase())
}

func TestInput_IndexErrors(t *testing.T) {
	n, _ := New(addKind(), nil)

	_, err := n.Input(-1)
	assert.ErrorIs(t, err, ErrPortIndexOutOfRange)
	_, err = n.Input(2)
	assert.ErrorIs(t, err, ErrPortIndexOutOfRange)
	assert.ErrorIs(t, n.SetOutputVal(1, 0), ErrPortIndexOutOfRange)
}

func TestCreatePort_InsertPositions(t *testing.T) {
	n, err := New(&Kind{Name: "bare"}, nil)
	require.NoError(t, err)

	_, err = n.CreateInput(port.KindData, "first", nil, port.WidgetSpec{}, -1)
	require.NoError(t, err)
	_, err = n.CreateInput(port.KindData, "last", nil, port.WidgetSpec{}, -1)
	require.NoError(t, err)
	_, err = n.CreateInput(port.KindData, "middle", nil, port.WidgetSpec{}, 1)
	require.NoError(t, err)
	// pos < -1 counts back from the end.
	_, err = n.CreateInput(port.KindData, "third", nil, port.WidgetSpec{}, -2)
	require.NoError(t, err)

	labels := make([]string, 0, 4)
	for _, p := range n.Inputs() {
		labels = append(labels, p.Label())
	}
	assert.Equal(t, []string{"first", "third", "middle", "last"}, labels)

	_, err = n.CreateInput(port.KindData, "bad", nil, port.WidgetSpec{}, 99)
	assert.ErrorIs(t, err, ErrPortIndexOutOfRange)
}

func TestDeleteInput_ShiftsIndices(t *testing.T) {
	n, err := New(&Kind{Name: "bare"}, nil)
	require.NoError(t, err)
	for _, label := range []string{"p0", "p1", "p2"} {
		_, err := n.CreateInput(port.KindData, label, port.NewValueWidget(label), port.WidgetSpec{Type: port.WidgetTypeValue}, -1)
		require.NoError(t, err)
	}

	require.NoError(t, n.DeleteInput(0))
	require.Len(t, n.Inputs(), 2)

	// A stale external reference to old index 1 now reads the old index-2
	// port. This invalidation is deliberate contract, asserted here.
	v, err := n.Input(1)
	require.NoError(t, err)
	assert.Equal(t, "p2", v)

	assert.ErrorIs(t, n.DeleteInput(5), ErrPortIndexOutOfRange)
}

func TestDeletePort_SeversConnections(t *testing.T) {
	src, _ := New(&Kind{Name: "src", Outputs: []PortTemplate{{Kind: port.KindData, Label: "v"}}}, nil)
	rec := &recorder{}
	down, _ := New(recorderKind(rec), nil)

	out := src.Outputs()[0]
	in := down.Inputs()[0]
	require.NoError(t, port.Connect(out, in))

	require.NoError(t, down.DeleteInput(0))
	assert.Empty(t, out.Connections(), "deleting a port must not leave dangling references on peers")

	// Delete by reference on the other side.
	require.NoError(t, src.DeleteOutputPort(out))
	assert.Empty(t, src.Outputs())

	stranger, _ := port.NewOutput(port.KindData, "x")
	assert.ErrorIs(t, src.DeleteOutputPort(stranger), ErrPortNotOwned)
}

func TestDeletePort_RandomSequences(t *testing.T) {
	// Over a series of create/connect/delete rounds, no surviving port may
	// reference a deleted one.
	src, _ := New(&Kind{Name: "src"}, nil)
	down, _ := New(&Kind{Name: "down"}, nil)

	for round := 0; round < 10; round++ {
		for i := 0; i < 4; i++ {
			_, err := src.CreateOutput(port.KindData, fmt.Sprintf("o%d", i), -1)
			require.NoError(t, err)
			_, err = down.CreateInput(port.KindData, fmt.Sprintf("i%d", i), nil, port.WidgetSpec{}, -1)
			require.NoError(t, err)
		}
		for i := 0; i < 4; i++ {
			require.NoError(t, port.Connect(src.Outputs()[i], down.Inputs()[i]))
		}
		// Delete every other port on alternating sides.
		require.NoError(t, down.DeleteInput(round%2))
		require.NoError(t, src.DeleteOutput(3-round%2))

		for _, p := range append(src.Outputs(), down.Inputs()...) {
			for _, peer := range p.Connections() {
				owner := peer.Owner()
				require.NotNil(t, owner)
				_, inOk := owner.InputIndex(peer)
				_, outOk := owner.OutputIndex(peer)
				assert.True(t, inOk || outOk, "connection references a port no longer owned by anyone")
			}
		}

		for len(src.Outputs()) > 0 {
			require.NoError(t, src.DeleteOutput(0))
		}
		for len(down.Inputs()) > 0 {
			require.NoError(t, down.DeleteInput(0))
		}
	}
}

func TestStopWorkers_OnRemoval(t *testing.T) {
	n, _ := New(&Kind{Name: "bare"}, nil)

	stopped := false
	n.AddWorker(stubWorker{stop: func(ctx context.Context) error {
		stopped = true
		return nil
	}})

	require.NoError(t, n.BeginRemoval(context.Background()))
	assert.True(t, stopped, "owned workers must be stopped before teardown")
}

type stubWorker struct {
	stop func(ctx context.Context) error
}

func (w stubWorker) Stop(ctx context.Context) error { return w.stop(ctx) }

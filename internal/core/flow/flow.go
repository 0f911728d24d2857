// Package flow provides the graph container: it owns node instances,
// mediates connect/disconnect between their ports, and round-trips the whole
// graph to a persisted document.
//
// The container shares the core's threading model: all structural edits and
// update triggers happen on one logical thread. Callers that cannot
// guarantee that (servers, background workers) serialize access through an
// eventloop.Loop.
package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nodeflow/nodeflow/internal/core/node"
	"github.com/nodeflow/nodeflow/internal/core/port"
)

// Flow owns a set of node instances and the edges between their ports.
type Flow struct {
	id     string
	name   string
	logger *slog.Logger

	nodes []*node.Instance
	index map[string]*node.Instance
}

// New creates an empty flow.
func New(name string, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()
	return &Flow{
		id:     id,
		name:   name,
		logger: logger.With("flow_id", id, "flow", name),
		index:  make(map[string]*node.Instance),
	}
}

// ID returns the flow identity.
func (f *Flow) ID() string { return f.id }

// Name returns the flow display name.
func (f *Flow) Name() string { return f.name }

// Logger returns the flow's logger for node construction.
func (f *Flow) Logger() *slog.Logger { return f.logger }

// AddNode places an instance in the flow and installs the removal hook the
// built-in "remove" action uses.
func (f *Flow) AddNode(n *node.Instance) error {
	if n == nil {
		return ErrNilNode
	}
	if _, exists := f.index[n.ID()]; exists {
		return fmt.Errorf("node %s: %w", n.ID(), ErrDuplicateNode)
	}
	n.SetRemoveHandler(func(target *node.Instance) {
		if err := f.RemoveNode(context.Background(), target.ID()); err != nil {
			f.logger.Error("remove action failed", "node_id", target.ID(), "error", err)
		}
	})
	f.nodes = append(f.nodes, n)
	f.index[n.ID()] = n
	return nil
}

// Spawn creates a fresh instance of a kind and adds it.
func (f *Flow) Spawn(kind *node.Kind) (*node.Instance, error) {
	n, err := node.New(kind, f.logger)
	if err != nil {
		return nil, err
	}
	if err := f.AddNode(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Node returns the instance with the given ID.
func (f *Flow) Node(id string) (*node.Instance, error) {
	n, exists := f.index[id]
	if !exists {
		return nil, fmt.Errorf("node %s: %w", id, ErrNodeNotFound)
	}
	return n, nil
}

// Nodes returns the instances in insertion order.
func (f *Flow) Nodes() []*node.Instance {
	out := make([]*node.Instance, len(f.nodes))
	copy(out, f.nodes)
	return out
}

// Connect wires output port outPort of node outID into input port inPort of
// node inID, enforcing the port-level legality rules.
func (f *Flow) Connect(outID string, outPort int, inID string, inPort int) error {
	out, in, err := f.resolveEdge(outID, outPort, inID, inPort)
	if err != nil {
		return err
	}
	if err := port.Connect(out, in); err != nil {
		return err
	}
	f.logger.Debug("connected", "out_node", outID, "out_port", outPort, "in_node", inID, "in_port", inPort)
	return nil
}

// Disconnect severs the edge between the addressed ports.
func (f *Flow) Disconnect(outID string, outPort int, inID string, inPort int) error {
	out, in, err := f.resolveEdge(outID, outPort, inID, inPort)
	if err != nil {
		return err
	}
	return port.Disconnect(out, in)
}

func (f *Flow) resolveEdge(outID string, outPort int, inID string, inPort int) (*port.Port, *port.Port, error) {
	outNode, err := f.Node(outID)
	if err != nil {
		return nil, nil, err
	}
	inNode, err := f.Node(inID)
	if err != nil {
		return nil, nil, err
	}
	outs := outNode.Outputs()
	if outPort < 0 || outPort >= len(outs) {
		return nil, nil, fmt.Errorf("node %s output %d: %w", outID, outPort, ErrUnknownPort)
	}
	ins := inNode.Inputs()
	if inPort < 0 || inPort >= len(ins) {
		return nil, nil, fmt.Errorf("node %s input %d: %w", inID, inPort, ErrUnknownPort)
	}
	return outs[outPort], ins[inPort], nil
}

// RemoveNode destroys an instance: owned workers are stopped first, then all
// port connections are severed, then the instance leaves the flow. No peer
// may retain a dangling edge afterwards.
func (f *Flow) RemoveNode(ctx context.Context, id string) error {
	n, err := f.Node(id)
	if err != nil {
		return err
	}
	if err := n.BeginRemoval(ctx); err != nil {
		f.logger.Warn("worker stop failed during removal", "node_id", id, "error", err)
	}
	n.FinishRemoval()

	delete(f.index, id)
	for i, cur := range f.nodes {
		if cur == n {
			f.nodes = append(f.nodes[:i], f.nodes[i+1:]...)
			break
		}
	}
	f.logger.Debug("node removed", "node_id", id)
	return nil
}

// Trigger delivers an update to a node. inputIndex may be node.NoInput for a
// manual trigger.
func (f *Flow) Trigger(id string, inputIndex int) error {
	n, err := f.Node(id)
	if err != nil {
		return err
	}
	if n.Phase() != node.PhaseReady {
		return fmt.Errorf("node %s: %w", id, node.ErrNotReady)
	}
	n.Update(inputIndex)
	return nil
}

package node

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nodeflow/nodeflow/internal/core/port"
	"github.com/nodeflow/nodeflow/internal/infrastructure/metrics"
)

// NoInput marks an update that was not triggered by a specific input (manual
// trigger from the host UI or a test harness).
const NoInput = -1

// Phase is the lifecycle state of an instance. Update calls are accepted only
// in PhaseReady; the propagation protocol assumes ports exist.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseInitializing  Phase = "initializing"
	PhaseReady         Phase = "ready"
	PhaseRemoving      Phase = "removing"
	PhaseDestroyed     Phase = "destroyed"
)

// Position is the instance's canvas position. The core never interprets it;
// it is carried for the presentation layer and the persisted description.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// OwnedWorker is a background task runner an instance owns. Workers are asked
// to stop before ports and connections are torn down so a late callback never
// mutates a removed instance.
type OwnedWorker interface {
	Stop(ctx context.Context) error
}

// Instance is one live, stateful occurrence of a node kind: an ordered
// sequence of input and output ports plus per-instance custom state.
//
// The propagation protocol is single-threaded and event-driven. Update calls
// are synchronous; re-entrancy happens only through the fan-out chain, which
// is ordinary nested calls. Background work must go through an OwnedWorker
// and re-enter the graph via the flow's event loop.
type Instance struct {
	id     string
	kind   *Kind
	logger *slog.Logger
	phase  Phase

	inputs  []*port.Port
	outputs []*port.Port

	state      State
	mainWidget port.Widget
	actions    map[string]*Action
	pos        Position

	workers  []OwnedWorker
	onRemove func(*Instance)
}

// New creates a fresh instance of a kind with ports populated from the
// kind's templates. The returned instance is Ready.
func New(kind *Kind, logger *slog.Logger) (*Instance, error) {
	n, err := newBare(kind, logger, uuid.New().String())
	if err != nil {
		return nil, err
	}
	for _, tpl := range kind.Inputs {
		var (
			w    port.Widget
			spec port.WidgetSpec
		)
		if tpl.WidgetType != "" {
			w = port.NewValueWidget(tpl.WidgetDefault)
			spec = port.WidgetSpec{Type: tpl.WidgetType, Name: tpl.WidgetName, Position: tpl.WidgetPosition}
		}
		if _, err := n.CreateInput(tpl.Kind, tpl.Label, w, spec, -1); err != nil {
			return nil, err
		}
	}
	for _, tpl := range kind.Outputs {
		if _, err := n.CreateOutput(tpl.Kind, tpl.Label, -1); err != nil {
			return nil, err
		}
	}
	n.phase = PhaseReady
	if kind.Init != nil {
		if err := kind.Init(n); err != nil {
			return nil, fmt.Errorf("kind init: %w", err)
		}
	}
	return n, nil
}

// newBare constructs an instance in PhaseInitializing with no ports. The
// caller populates ports (from templates or a persisted description) and
// flips the phase to Ready.
func newBare(kind *Kind, logger *slog.Logger, id string) (*Instance, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	n := &Instance{
		id:      id,
		kind:    kind,
		logger:  logger.With("node_kind", kind.Name, "node_id", id),
		phase:   PhaseInitializing,
		actions: make(map[string]*Action),
	}
	if kind.NewState != nil {
		n.state = kind.NewState()
	}
	if kind.MainWidget != nil {
		n.mainWidget = kind.MainWidget()
	}
	return n, nil
}

// ID returns the instance identity.
func (n *Instance) ID() string { return n.id }

// Kind returns the kind the instance was created from.
func (n *Instance) Kind() *Kind { return n.kind }

// Phase returns the lifecycle phase.
func (n *Instance) Phase() Phase { return n.phase }

// State returns the instance's custom state, nil for stateless kinds.
func (n *Instance) State() State { return n.state }

// MainWidget returns the instance's main editor widget, nil when absent.
func (n *Instance) MainWidget() port.Widget { return n.mainWidget }

// Position returns the canvas position.
func (n *Instance) Position() Position { return n.pos }

// SetPosition moves the instance on the canvas.
func (n *Instance) SetPosition(p Position) { n.pos = p }

// Inputs returns the input ports in index order.
func (n *Instance) Inputs() []*port.Port {
	out := make([]*port.Port, len(n.inputs))
	copy(out, n.inputs)
	return out
}

// Outputs returns the output ports in index order.
func (n *Instance) Outputs() []*port.Port {
	out := make([]*port.Port, len(n.outputs))
	copy(out, n.outputs)
	return out
}

// Update is the entry point that activates the instance: a connected exec
// output fired, a data output upstream changed, or the host triggered the
// node directly. Faults in the kind's update hook (error returns and panics)
// are logged with the node identity and triggering index and swallowed;
// callers never see them. One broken node must not take the session down.
func (n *Instance) Update(inputIndex int) {
	if n.phase != PhaseReady {
		n.logger.Warn("update ignored", "phase", string(n.phase), "input", inputIndex)
		return
	}
	metrics.IncUpdates()
	n.logger.Debug("update", "input", inputIndex)
	defer func() {
		if r := recover(); r != nil {
			n.fault(inputIndex, fmt.Errorf("panic: %v", r))
		}
	}()
	if n.kind.Update == nil {
		return
	}
	if err := n.kind.Update(n, inputIndex); err != nil {
		n.fault(inputIndex, err)
	}
}

func (n *Instance) fault(inputIndex int, err error) {
	metrics.IncNodeFaults()
	n.logger.Error("node update failed", "input", inputIndex, "error", err)
}

// Input returns input i's effective value: the connected output's value when
// connected, else the widget default. Out-of-range indices are node-kind
// programming errors and surface to the caller.
func (n *Instance) Input(i int) (any, error) {
	if i < 0 || i >= len(n.inputs) {
		return nil, fmt.Errorf("input %d: %w", i, ErrPortIndexOutOfRange)
	}
	return n.inputs[i].EffectiveValue()
}

// SetOutputVal stores a value on data output i. It does not propagate;
// DataOutputsUpdated is the explicit separate step.
func (n *Instance) SetOutputVal(i int, v any) error {
	if i < 0 || i >= len(n.outputs) {
		return fmt.Errorf("output %d: %w", i, ErrPortIndexOutOfRange)
	}
	return n.outputs[i].SetValue(v)
}

// DataOutputsUpdated notifies every node connected to a data output, in
// stored port order. Node logic must call it only after all relevant output
// values are set so downstream nodes never observe a partially updated set.
// Fan-out across one output's connections is unordered by contract.
func (n *Instance) DataOutputsUpdated() {
	n.logger.Debug("data outputs updated")
	for _, out := range n.outputs {
		if out.Kind() != port.KindData {
			continue
		}
		n.fanOut(out, metrics.AddDataFanout)
	}
}

// ExecOutput fires exec output i, triggering an update on every connected
// node with the receiving side's input index.
func (n *Instance) ExecOutput(i int) error {
	if i < 0 || i >= len(n.outputs) {
		return fmt.Errorf("output %d: %w", i, ErrPortIndexOutOfRange)
	}
	out := n.outputs[i]
	if out.Kind() != port.KindExec {
		return fmt.Errorf("output %d: %w", i, ErrNotExecPort)
	}
	n.fanOut(out, metrics.AddExecFanout)
	return nil
}

// fanOut delivers one output's signal to each connected peer. A fault in one
// branch is contained by the peer's own Update boundary, so sibling branches
// always run.
func (n *Instance) fanOut(out *port.Port, count func(int64)) {
	conns := out.Connections()
	count(int64(len(conns)))
	for _, peer := range conns {
		owner := peer.Owner()
		if owner == nil {
			continue
		}
		idx, ok := owner.InputIndex(peer)
		if !ok {
			continue
		}
		owner.TriggerUpdate(idx)
	}
}

// TriggerUpdate implements port.Owner.
func (n *Instance) TriggerUpdate(inputIndex int) { n.Update(inputIndex) }

// InputIndex implements port.Owner.
func (n *Instance) InputIndex(p *port.Port) (int, bool) {
	for i, in := range n.inputs {
		if in == p {
			return i, true
		}
	}
	return 0, false
}

// OutputIndex implements port.Owner.
func (n *Instance) OutputIndex(p *port.Port) (int, bool) {
	for i, out := range n.outputs {
		if out == p {
			return i, true
		}
	}
	return 0, false
}

// InstanceID implements port.Owner.
func (n *Instance) InstanceID() string { return n.id }

// CreateInput inserts a new input port at pos. pos == -1 appends; a more
// negative pos counts back from the end. Indices of ports at and after the
// insertion point shift; external index-based references are invalidated.
func (n *Instance) CreateInput(kind port.Kind, label string, widget port.Widget, spec port.WidgetSpec, pos int) (*port.Port, error) {
	p, err := port.NewInput(kind, label, widget, spec)
	if err != nil {
		return nil, err
	}
	p.Bind(n)
	n.inputs, err = insertPort(n.inputs, p, pos)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateOutput inserts a new output port at pos, appending when pos == -1.
func (n *Instance) CreateOutput(kind port.Kind, label string, pos int) (*port.Port, error) {
	p, err := port.NewOutput(kind, label)
	if err != nil {
		return nil, err
	}
	p.Bind(n)
	n.outputs, err = insertPort(n.outputs, p, pos)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteInput severs all of input i's connections and removes it. Remaining
// ports shift down; stale external indices are the caller's problem.
func (n *Instance) DeleteInput(i int) error {
	if i < 0 || i >= len(n.inputs) {
		return fmt.Errorf("input %d: %w", i, ErrPortIndexOutOfRange)
	}
	n.inputs[i].SeverAll()
	n.inputs = append(n.inputs[:i], n.inputs[i+1:]...)
	return nil
}

// DeleteInputPort removes an input by reference.
func (n *Instance) DeleteInputPort(p *port.Port) error {
	i, ok := n.InputIndex(p)
	if !ok {
		return ErrPortNotOwned
	}
	return n.DeleteInput(i)
}

// DeleteOutput severs all of output i's connections and removes it.
func (n *Instance) DeleteOutput(i int) error {
	if i < 0 || i >= len(n.outputs) {
		return fmt.Errorf("output %d: %w", i, ErrPortIndexOutOfRange)
	}
	n.outputs[i].SeverAll()
	n.outputs = append(n.outputs[:i], n.outputs[i+1:]...)
	return nil
}

// DeleteOutputPort removes an output by reference.
func (n *Instance) DeleteOutputPort(p *port.Port) error {
	i, ok := n.OutputIndex(p)
	if !ok {
		return ErrPortNotOwned
	}
	return n.DeleteOutput(i)
}

func insertPort(ports []*port.Port, p *port.Port, pos int) ([]*port.Port, error) {
	if pos < -1 {
		pos += len(ports)
		if pos < 0 {
			return ports, ErrPortIndexOutOfRange
		}
	}
	if pos == -1 || pos == len(ports) {
		return append(ports, p), nil
	}
	if pos < 0 || pos > len(ports) {
		return ports, ErrPortIndexOutOfRange
	}
	ports = append(ports, nil)
	copy(ports[pos+1:], ports[pos:])
	ports[pos] = p
	return ports, nil
}

// AddWorker registers a background worker the instance owns.
func (n *Instance) AddWorker(w OwnedWorker) {
	n.workers = append(n.workers, w)
}

// StopWorkers asks every owned worker to stop, keeping the first error.
func (n *Instance) StopWorkers(ctx context.Context) error {
	var first error
	for _, w := range n.workers {
		if err := w.Stop(ctx); err != nil && first == nil {
			first = err
		}
	}
	n.workers = nil
	return first
}

// SetRemoveHandler installs the hook the built-in "remove" action calls. The
// flow container sets it when the instance is added.
func (n *Instance) SetRemoveHandler(fn func(*Instance)) { n.onRemove = fn }

// BeginRemoval transitions to Removing and stops owned workers. Called by the
// flow before ports are torn down.
func (n *Instance) BeginRemoval(ctx context.Context) error {
	n.phase = PhaseRemoving
	return n.StopWorkers(ctx)
}

// FinishRemoval severs every port connection and marks the instance
// destroyed. After this no peer holds a reference to the instance's ports.
func (n *Instance) FinishRemoval() {
	for _, p := range n.inputs {
		p.SeverAll()
	}
	for _, p := range n.outputs {
		p.SeverAll()
	}
	n.phase = PhaseDestroyed
	n.logger.Debug("destroyed")
}

// Package port provides the typed connection endpoints of node instances.
// A port is directional (input or output) and carries either a data value or
// an execution trigger. Connection legality lives here so that every caller
// (flow container, tests, restore path) shares the same rules.
package port

// Kind discriminates data ports (carry a value) from exec ports (carry only a
// trigger signal).
type Kind string

const (
	// KindData represents a value-carrying port
	KindData Kind = "data"
	// KindExec represents a trigger-only port
	KindExec Kind = "exec"
)

// Valid reports whether the kind is one of the two closed variants.
func (k Kind) Valid() bool {
	switch k {
	case KindData, KindExec:
		return true
	}
	return false
}

// Direction discriminates input ports from output ports.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Owner is the node instance a port belongs to. The port package stays below
// the node package, so the owner is abstracted to the two capabilities the
// fan-out mechanism needs plus identity for logging.
type Owner interface {
	// TriggerUpdate delivers an update signal with the triggering input index.
	TriggerUpdate(inputIndex int)

	// InputIndex reports the current index of p among the owner's inputs.
	InputIndex(p *Port) (int, bool)

	// OutputIndex reports the current index of p among the owner's outputs.
	OutputIndex(p *Port) (int, bool)

	// InstanceID identifies the owning node instance.
	InstanceID() string
}

// Port is a typed, directional connection endpoint on a node instance.
// PRINCIPLES:
// - SRP: Only responsible for endpoint state and connection bookkeeping
// - Propagation policy (who gets updated, in which order) lives in the node
type Port struct {
	direction Direction
	kind      Kind
	label     string
	owner     Owner

	// value is the last stored value; meaningful only for data outputs.
	value any

	// conns holds peers in connection order. A data input holds at most one.
	conns []*Port

	widget Widget
	spec   WidgetSpec
}

// NewInput creates an input port. widget may be nil for inputs without a
// default-value editor; spec is ignored when widget is nil.
func NewInput(kind Kind, label string, widget Widget, spec WidgetSpec) (*Port, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return &Port{
		direction: DirectionInput,
		kind:      kind,
		label:     label,
		widget:    widget,
		spec:      spec,
	}, nil
}

// NewOutput creates an output port.
func NewOutput(kind Kind, label string) (*Port, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return &Port{
		direction: DirectionOutput,
		kind:      kind,
		label:     label,
	}, nil
}

// Direction returns the port direction.
func (p *Port) Direction() Direction { return p.direction }

// Kind returns the port kind.
func (p *Port) Kind() Kind { return p.kind }

// Label returns the display label.
func (p *Port) Label() string { return p.label }

// Owner returns the owning node instance, nil until Bind.
func (p *Port) Owner() Owner { return p.owner }

// Bind attaches the port to its owning node instance. Called exactly once by
// the node when the port is added.
func (p *Port) Bind(owner Owner) { p.owner = owner }

// Value returns the stored value of a data port.
func (p *Port) Value() (any, error) {
	if p.kind != KindData {
		return nil, ErrNotDataPort
	}
	return p.value, nil
}

// SetValue stores a value on a data port. It does not propagate.
func (p *Port) SetValue(v any) error {
	if p.kind != KindData {
		return ErrNotDataPort
	}
	p.value = v
	return nil
}

// EffectiveValue resolves a data input's value: the connected output's stored
// value when connected, else the widget's value, else nil. Never both.
func (p *Port) EffectiveValue() (any, error) {
	if p.kind != KindData {
		return nil, ErrNotDataPort
	}
	if len(p.conns) > 0 {
		return p.conns[0].Value()
	}
	if p.widget != nil {
		return p.widget.Value(), nil
	}
	return nil, nil
}

// Connections returns the peers in connection order.
func (p *Port) Connections() []*Port {
	out := make([]*Port, len(p.conns))
	copy(out, p.conns)
	return out
}

// ConnectedTo reports whether p and peer are connected.
func (p *Port) ConnectedTo(peer *Port) bool {
	for _, c := range p.conns {
		if c == peer {
			return true
		}
	}
	return false
}

// Widget returns the attached default-value widget, nil when absent.
func (p *Port) Widget() Widget { return p.widget }

// HasWidget reports whether a default-value widget is attached.
func (p *Port) HasWidget() bool { return p.widget != nil }

// WidgetSpec returns the widget identity used for persistence.
func (p *Port) WidgetSpec() WidgetSpec { return p.spec }

// Connect wires an output to an input after checking legality:
// output-to-input only, matching kinds, no duplicate edges, and at most one
// connection into a data input.
func Connect(out, in *Port) error {
	if out == in {
		return ErrSamePort
	}
	if out.direction != DirectionOutput || in.direction != DirectionInput {
		return ErrDirectionMismatch
	}
	if out.kind != in.kind {
		return ErrKindMismatch
	}
	if out.ConnectedTo(in) {
		return ErrAlreadyConnected
	}
	if in.kind == KindData && len(in.conns) > 0 {
		return ErrInputOccupied
	}
	out.conns = append(out.conns, in)
	in.conns = append(in.conns, out)
	return nil
}

// Disconnect severs the edge between an output and an input.
func Disconnect(out, in *Port) error {
	if !out.ConnectedTo(in) {
		return ErrNotConnected
	}
	out.removeConn(in)
	in.removeConn(out)
	return nil
}

// SeverAll removes every connection the port holds, on both sides. Used
// before port deletion and node removal so no peer retains a dangling
// reference.
func (p *Port) SeverAll() {
	for _, peer := range p.conns {
		peer.removeConn(p)
	}
	p.conns = nil
}

func (p *Port) removeConn(peer *Port) {
	for i, c := range p.conns {
		if c == peer {
			p.conns = append(p.conns[:i], p.conns[i+1:]...)
			return
		}
	}
}

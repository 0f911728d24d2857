// Package node implements node instances and the update propagation protocol
// of the flow editor core. A Kind is the reusable template a node instance is
// created from; an Instance is one live, stateful occurrence of a kind.
package node

import (
	"github.com/nodeflow/nodeflow/internal/core/port"
)

// UpdateFunc is the node-defined behavior invoked when an instance is
// triggered. inputIndex is the index of the input that received the signal,
// or NoInput when the update was not caused by a specific input. Errors and
// panics raised here never cross the Update boundary; they are logged and
// swallowed to keep the rest of the flow alive.
type UpdateFunc func(n *Instance, inputIndex int) error

// ActionFunc is a user-invocable, kind-specific behavior exposed outside the
// propagation path (context menus in the editor). data is the payload stored
// with the action entry, nil when none.
type ActionFunc func(n *Instance, data any) error

// State carries an instance's custom, host-defined state. Whatever GetData
// returns must be fully reconstructible by SetData on a fresh instance of the
// same kind.
type State interface {
	GetData() (map[string]interface{}, error)
	SetData(data map[string]interface{}) error
}

// PortTemplate describes a default port of a kind.
type PortTemplate struct {
	Kind  port.Kind
	Label string

	// Widget configuration, inputs only. WidgetType empty means no widget;
	// WidgetDefault seeds the built-in value widget.
	WidgetType     string
	WidgetName     string
	WidgetPosition string
	WidgetDefault  any
}

// Kind is the static definition of a node kind: default ports, behavior,
// action registry, and optional state/widget factories. Kinds are registered
// once and shared by all instances; they must not be mutated afterwards.
type Kind struct {
	Name        string
	Description string

	Inputs  []PortTemplate
	Outputs []PortTemplate

	// Update is the node behavior hook. Nil means the kind is passive.
	Update UpdateFunc

	// Actions resolves persisted method names to behaviors. The closed
	// registry replaces open-ended reflection on method names.
	Actions map[string]ActionFunc

	// NewState builds the per-instance custom state. Nil for stateless kinds.
	NewState func() State

	// MainWidget builds the instance's main editor widget. Nil when absent.
	MainWidget func() port.Widget

	// Init runs once per instance after construction. Kinds use it to seed
	// special actions or one-off setup; persisted action data applied during
	// a restore replaces whatever Init sets.
	Init func(n *Instance) error

	// Widgets builds custom input widgets by widget name for the restore
	// path. Inputs using the built-in value widget need no entry here.
	Widgets map[string]port.Builder
}

// Validate ensures kind integrity
func (k *Kind) Validate() error {
	if k == nil {
		return ErrNilKind
	}
	if k.Name == "" {
		return ErrInvalidKindName
	}
	for _, tpl := range k.Inputs {
		if !tpl.Kind.Valid() {
			return port.ErrInvalidKind
		}
	}
	for _, tpl := range k.Outputs {
		if !tpl.Kind.Valid() {
			return port.ErrInvalidKind
		}
	}
	return nil
}

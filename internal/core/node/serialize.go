package node

import (
	"fmt"
	"log/slog"

	"github.com/nodeflow/nodeflow/internal/core/document"
	"github.com/nodeflow/nodeflow/internal/core/port"
)

// Describe emits the instance's wire description: kind identity, position,
// custom state, special actions, and the ordered port descriptions. The
// result is sufficient to exactly recreate the observable state via Restore.
func (n *Instance) Describe() (*document.NodeDescription, error) {
	desc := &document.NodeDescription{
		ID:             n.id,
		Kind:           n.kind.Name,
		PositionX:      n.pos.X,
		PositionY:      n.pos.Y,
		StateData:      map[string]interface{}{},
		SpecialActions: n.SpecialActionsData(),
	}

	if n.mainWidget != nil {
		data, err := n.mainWidget.Data()
		if err != nil {
			return nil, fmt.Errorf("main widget data: %w", err)
		}
		desc.MainWidgetData = data
	}
	if n.state != nil {
		data, err := n.state.GetData()
		if err != nil {
			return nil, fmt.Errorf("state data: %w", err)
		}
		desc.StateData = data
	}

	desc.Inputs = make([]document.PortDescription, 0, len(n.inputs))
	for i, in := range n.inputs {
		pd := document.PortDescription{
			Type:  string(in.Kind()),
			Label: in.Label(),
		}
		if in.HasWidget() {
			spec := in.WidgetSpec()
			data, err := in.Widget().Data()
			if err != nil {
				return nil, fmt.Errorf("input %d widget data: %w", i, err)
			}
			pd.HasWidget = true
			pd.WidgetType = spec.Type
			pd.WidgetName = spec.Name
			pd.WidgetPosition = spec.Position
			pd.WidgetData = data
		}
		desc.Inputs = append(desc.Inputs, pd)
	}

	desc.Outputs = make([]document.PortDescription, 0, len(n.outputs))
	for _, out := range n.outputs {
		desc.Outputs = append(desc.Outputs, document.PortDescription{
			Type:  string(out.Kind()),
			Label: out.Label(),
		})
	}

	return desc, nil
}

// Restore reconstructs an instance from a persisted description. Ports are
// rebuilt in the exact order given, NOT from the current kind templates: the
// kind may have evolved since the description was saved. Widget data is
// applied first, then custom state, then special actions (with per-entry
// recovery for unresolved methods).
func Restore(reg *Registry, desc *document.NodeDescription, logger *slog.Logger) (*Instance, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid node description: %w", err)
	}
	kind, err := reg.Get(desc.Kind)
	if err != nil {
		return nil, err
	}
	// The persisted identity is kept so flow-level connection rebinding and a
	// second Describe round-trip address the same node.
	n, err := newBare(kind, logger, desc.ID)
	if err != nil {
		return nil, err
	}
	n.pos = Position{X: desc.PositionX, Y: desc.PositionY}

	if n.mainWidget != nil && desc.MainWidgetData != nil {
		if err := n.mainWidget.SetData(desc.MainWidgetData); err != nil {
			return nil, fmt.Errorf("main widget data: %w", err)
		}
	}

	for i, pd := range desc.Inputs {
		var (
			w    port.Widget
			spec port.WidgetSpec
		)
		if pd.HasWidget {
			spec = port.WidgetSpec{Type: pd.WidgetType, Name: pd.WidgetName, Position: pd.WidgetPosition}
			w = n.buildWidget(spec)
			if w != nil && pd.WidgetData != nil {
				if err := w.SetData(pd.WidgetData); err != nil {
					return nil, fmt.Errorf("input %d widget data: %w", i, err)
				}
			}
		}
		if _, err := n.CreateInput(port.Kind(pd.Type), pd.Label, w, spec, -1); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	for i, pd := range desc.Outputs {
		if _, err := n.CreateOutput(port.Kind(pd.Type), pd.Label, -1); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
	}

	if n.state != nil && desc.StateData != nil {
		if err := n.state.SetData(desc.StateData); err != nil {
			return nil, fmt.Errorf("state data: %w", err)
		}
	}

	n.phase = PhaseReady
	if kind.Init != nil {
		if err := kind.Init(n); err != nil {
			return nil, fmt.Errorf("kind init: %w", err)
		}
	}

	// Persisted action data wins over whatever Init seeded.
	n.SetSpecialActionsData(desc.SpecialActions)
	return n, nil
}

// buildWidget resolves a widget spec against the kind's builders, falling
// back to the built-in value widget. An unknown custom widget is a
// resolution fault: logged, the input loads without a widget.
func (n *Instance) buildWidget(spec port.WidgetSpec) port.Widget {
	if builder, exists := n.kind.Widgets[spec.Name]; exists {
		return builder()
	}
	if spec.Type == port.WidgetTypeValue {
		return port.NewValueWidget(nil)
	}
	n.logger.Warn("skipping unresolved input widget", "widget_type", spec.Type, "widget_name", spec.Name)
	return nil
}

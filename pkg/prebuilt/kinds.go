package prebuilt

import (
	"fmt"
	"io"

	"github.com/nodeflow/nodeflow/internal/core/node"
	"github.com/nodeflow/nodeflow/internal/core/port"
)

// Const emits the value of its widget. Editing the widget (or connecting an
// upstream value) pushes the new value downstream.
func Const() *node.Kind {
	return &node.Kind{
		Name:        "std.const",
		Description: "emits a constant value",
		Inputs: []node.PortTemplate{
			{Kind: port.KindData, Label: "value", WidgetType: port.WidgetTypeValue, WidgetDefault: 0},
		},
		Outputs: []node.PortTemplate{
			{Kind: port.KindData, Label: "out"},
		},
		Update: func(n *node.Instance, inputIndex int) error {
			v, err := n.Input(0)
			if err != nil {
				return err
			}
			if err := n.SetOutputVal(0, v); err != nil {
				return err
			}
			n.DataOutputsUpdated()
			return nil
		},
	}
}

// Add sums its two inputs. Integer inputs stay integral; anything numeric is
// otherwise coerced through float64.
func Add() *node.Kind {
	return &node.Kind{
		Name:        "std.add",
		Description: "adds two numbers",
		Inputs: []node.PortTemplate{
			{Kind: port.KindData, Label: "a", WidgetType: port.WidgetTypeValue, WidgetDefault: 0},
			{Kind: port.KindData, Label: "b", WidgetType: port.WidgetTypeValue, WidgetDefault: 0},
		},
		Outputs: []node.PortTemplate{
			{Kind: port.KindData, Label: "sum"},
		},
		Update: func(n *node.Instance, inputIndex int) error {
			a, err := n.Input(0)
			if err != nil {
				return err
			}
			b, err := n.Input(1)
			if err != nil {
				return err
			}
			sum, err := addValues(a, b)
			if err != nil {
				return err
			}
			if err := n.SetOutputVal(0, sum); err != nil {
				return err
			}
			n.DataOutputsUpdated()
			return nil
		},
	}
}

func addValues(a, b any) (any, error) {
	ai, aIsInt := asInt(a)
	bi, bIsInt := asInt(b)
	if aIsInt && bIsInt {
		return ai + bi, nil
	}
	af, aOK := asFloat(a)
	bf, bOK := asFloat(b)
	if !aOK || !bOK {
		return nil, fmt.Errorf("cannot add %T and %T", a, b)
	}
	return af + bf, nil
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case nil:
		return 0, true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// Print writes its data input to w whenever the exec input fires.
func Print(w io.Writer) *node.Kind {
	return &node.Kind{
		Name:        "std.print",
		Description: "prints a value when triggered",
		Inputs: []node.PortTemplate{
			{Kind: port.KindData, Label: "value", WidgetType: port.WidgetTypeValue, WidgetDefault: ""},
			{Kind: port.KindExec, Label: "print"},
		},
		Update: func(n *node.Instance, inputIndex int) error {
			// Data arriving on input 0 is just stored by the port; only the
			// exec input makes the node act.
			if inputIndex != 1 {
				return nil
			}
			v, err := n.Input(0)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, v)
			return err
		},
	}
}

// Gate forwards its exec trigger only while the "open" input is truthy.
func Gate() *node.Kind {
	return &node.Kind{
		Name:        "std.gate",
		Description: "forwards exec triggers while open",
		Inputs: []node.PortTemplate{
			{Kind: port.KindExec, Label: "trigger"},
			{Kind: port.KindData, Label: "open", WidgetType: port.WidgetTypeValue, WidgetDefault: true},
		},
		Outputs: []node.PortTemplate{
			{Kind: port.KindExec, Label: "out"},
		},
		Update: func(n *node.Instance, inputIndex int) error {
			if inputIndex != 0 {
				return nil
			}
			open, err := n.Input(1)
			if err != nil {
				return err
			}
			if truthy(open) {
				return n.ExecOutput(0)
			}
			return nil
		},
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case nil:
		return false
	case string:
		return x != ""
	default:
		if f, ok := asFloat(x); ok {
			return f != 0
		}
		return true
	}
}

package prebuilt

import (
	"fmt"

	"github.com/nodeflow/nodeflow/internal/core/node"
	"github.com/nodeflow/nodeflow/internal/core/port"
)

// counterState holds the running count across save/load cycles.
type counterState struct {
	count int64
}

func (s *counterState) GetData() (map[string]interface{}, error) {
	return map[string]interface{}{"count": s.count}, nil
}

func (s *counterState) SetData(data map[string]interface{}) error {
	raw, ok := data["count"]
	if !ok {
		s.count = 0
		return nil
	}
	// JSON decoding hands back float64, msgpack int64; accept both.
	if n, ok := asInt(raw); ok {
		s.count = n
		return nil
	}
	if f, ok := asFloat(raw); ok {
		s.count = int64(f)
		return nil
	}
	return fmt.Errorf("count is not numeric: %T", raw)
}

// Counter counts exec triggers and emits the running total. Its context menu
// offers "reset" and "set", and the count survives save/load.
func Counter() *node.Kind {
	return &node.Kind{
		Name:        "std.counter",
		Description: "counts exec triggers",
		Inputs: []node.PortTemplate{
			{Kind: port.KindExec, Label: "count"},
		},
		Outputs: []node.PortTemplate{
			{Kind: port.KindData, Label: "total"},
		},
		NewState: func() node.State { return &counterState{} },
		Init: func(n *node.Instance) error {
			n.SetSpecialAction("reset", &node.Action{Method: "reset"})
			return nil
		},
		Update: func(n *node.Instance, inputIndex int) error {
			st := n.State().(*counterState)
			if inputIndex == 0 {
				st.count++
			}
			if err := n.SetOutputVal(0, st.count); err != nil {
				return err
			}
			n.DataOutputsUpdated()
			return nil
		},
		Actions: map[string]node.ActionFunc{
			"reset": func(n *node.Instance, data any) error {
				st := n.State().(*counterState)
				st.count = 0
				n.Update(node.NoInput)
				return nil
			},
			"set": func(n *node.Instance, data any) error {
				v, ok := asInt(data)
				if !ok {
					f, fok := asFloat(data)
					if !fok {
						return fmt.Errorf("set expects a numeric payload, got %T", data)
					}
					v = int64(f)
				}
				st := n.State().(*counterState)
				st.count = v
				n.Update(node.NoInput)
				return nil
			},
		},
	}
}

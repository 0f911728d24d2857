package validation

import (
	"fmt"

	"github.com/nodeflow/nodeflow/internal/core/document"
)

// Document performs structural validation of a flow document beyond what
// per-field tags can check: every connection must reference existing nodes
// and ports, run output-to-input, join like port types, and respect the
// single-connection rule for data inputs.
func Document(doc *document.Document) error {
	if doc == nil {
		return Errors{{Field: "document", Message: "document must not be nil"}}
	}

	var errs Errors

	byID := make(map[string]*document.NodeDescription, len(doc.Nodes))
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if _, dup := byID[n.ID]; dup {
			errs = append(errs, Error{
				Field:   fmt.Sprintf("nodes[%d].id", i),
				Value:   n.ID,
				Message: "duplicate node id",
			})
			continue
		}
		byID[n.ID] = n
		errs = append(errs, checkWidgets(i, n)...)
	}

	dataFanIn := make(map[string]int)
	for i := range doc.Connections {
		c := &doc.Connections[i]
		out, ok := byID[c.OutNode]
		if !ok {
			errs = append(errs, Error{
				Field:   fmt.Sprintf("connections[%d].out_node", i),
				Value:   c.OutNode,
				Message: "unknown node id",
			})
			continue
		}
		in, ok := byID[c.InNode]
		if !ok {
			errs = append(errs, Error{
				Field:   fmt.Sprintf("connections[%d].in_node", i),
				Value:   c.InNode,
				Message: "unknown node id",
			})
			continue
		}
		if c.OutPort < 0 || c.OutPort >= len(out.Outputs) {
			errs = append(errs, Error{
				Field:   fmt.Sprintf("connections[%d].out_port", i),
				Value:   c.OutPort,
				Message: fmt.Sprintf("output index out of range for node %q", c.OutNode),
			})
			continue
		}
		if c.InPort < 0 || c.InPort >= len(in.Inputs) {
			errs = append(errs, Error{
				Field:   fmt.Sprintf("connections[%d].in_port", i),
				Value:   c.InPort,
				Message: fmt.Sprintf("input index out of range for node %q", c.InNode),
			})
			continue
		}

		outType := out.Outputs[c.OutPort].Type
		inType := in.Inputs[c.InPort].Type
		if outType != inType {
			errs = append(errs, Error{
				Field:   fmt.Sprintf("connections[%d]", i),
				Value:   fmt.Sprintf("%s->%s", outType, inType),
				Message: "port types do not match",
			})
			continue
		}

		if inType == document.PortTypeData {
			key := fmt.Sprintf("%s/%d", c.InNode, c.InPort)
			dataFanIn[key]++
			if dataFanIn[key] > 1 {
				errs = append(errs, Error{
					Field:   fmt.Sprintf("connections[%d]", i),
					Value:   key,
					Message: "data input already has an incoming connection",
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkWidgets(nodeIdx int, n *document.NodeDescription) Errors {
	var errs Errors
	for j := range n.Inputs {
		p := &n.Inputs[j]
		if p.HasWidget && p.WidgetType == "" {
			errs = append(errs, Error{
				Field:   fmt.Sprintf("nodes[%d].inputs[%d].widget_type", nodeIdx, j),
				Message: "widget type required when has_widget is set",
			})
		}
		if p.HasWidget && p.Type == document.PortTypeExec {
			errs = append(errs, Error{
				Field:   fmt.Sprintf("nodes[%d].inputs[%d]", nodeIdx, j),
				Message: "exec inputs cannot carry widgets",
			})
		}
	}
	return errs
}

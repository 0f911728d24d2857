// Package document provides the core wire schema for persisted flows
// following Clean Architecture principles with zero external dependencies.
// A Document is the JSON-compatible description of a flow: per-node
// descriptions sufficient to exactly recreate each node instance, plus the
// connection edges between ports.
package document

import (
	"time"
)

// PortType values mirror the two port kinds on the wire.
const (
	PortTypeData = "data"
	PortTypeExec = "exec"
)

// PortDescription describes one port of a node instance. Outputs use only
// Type and Label; inputs additionally carry their default-value widget
// configuration when one is attached.
type PortDescription struct {
	Type           string `json:"type"`
	Label          string `json:"label"`
	HasWidget      bool   `json:"has_widget,omitempty"`
	WidgetType     string `json:"widget_type,omitempty"`
	WidgetName     string `json:"widget_name,omitempty"`
	WidgetPosition string `json:"widget_position,omitempty"`
	WidgetData     any    `json:"widget_data,omitempty"`
}

// Validate ensures port description integrity
func (p *PortDescription) Validate() error {
	if p.Type != PortTypeData && p.Type != PortTypeExec {
		return ErrInvalidPortType
	}
	return nil
}

// NodeDescription describes one node instance: its kind identity, canvas
// position, custom state, special actions (method names resolved to strings)
// and the ordered port descriptions.
//
// Special actions are persisted as a nested mapping. A leaf entry is a
// mapping holding "method" (string) and optionally "data"; any other mapping
// is a submenu of further entries.
type NodeDescription struct {
	ID             string                 `json:"id"`
	Kind           string                 `json:"node_kind"`
	PositionX      float64                `json:"position_x"`
	PositionY      float64                `json:"position_y"`
	MainWidgetData any                    `json:"main_widget_data,omitempty"`
	StateData      map[string]interface{} `json:"state_data"`
	SpecialActions map[string]interface{} `json:"special_actions,omitempty"`
	Inputs         []PortDescription      `json:"inputs"`
	Outputs        []PortDescription      `json:"outputs"`
}

// Validate ensures node description integrity
func (n *NodeDescription) Validate() error {
	if n.ID == "" {
		return ErrMissingNodeID
	}
	if n.Kind == "" {
		return ErrMissingNodeKind
	}
	for i := range n.Inputs {
		if err := n.Inputs[i].Validate(); err != nil {
			return err
		}
	}
	for i := range n.Outputs {
		if err := n.Outputs[i].Validate(); err != nil {
			return err
		}
	}
	return ValidateActions(n.SpecialActions)
}

// ValidateActions checks the shape of a persisted special-actions mapping:
// every leaf has exactly one method reference, submenus nest arbitrarily.
func ValidateActions(actions map[string]interface{}) error {
	for _, v := range actions {
		entry, ok := v.(map[string]interface{})
		if !ok {
			return ErrEmptyAction
		}
		method, hasMethod := entry["method"]
		if hasMethod {
			if _, ok := method.(string); !ok {
				return ErrEmptyAction
			}
			for k := range entry {
				if k != "method" && k != "data" {
					return ErrAmbiguousAction
				}
			}
			continue
		}
		if len(entry) == 0 {
			return ErrEmptyAction
		}
		if err := ValidateActions(entry); err != nil {
			return err
		}
	}
	return nil
}

// ConnectionDescription describes one edge between an output port and an
// input port, addressed by node ID and current port index.
type ConnectionDescription struct {
	OutNode string `json:"out_node"`
	OutPort int    `json:"out_port"`
	InNode  string `json:"in_node"`
	InPort  int    `json:"in_port"`
}

// Metadata carries additional information about a saved document.
type Metadata struct {
	Source    string   `json:"source,omitempty"`
	CreatedBy string   `json:"created_by,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// Document is one persisted flow: every node description plus the edges.
type Document struct {
	ID          string                  `json:"id"`
	FlowID      string                  `json:"flow_id"`
	Name        string                  `json:"name"`
	Nodes       []NodeDescription       `json:"nodes"`
	Connections []ConnectionDescription `json:"connections"`
	Metadata    Metadata                `json:"metadata"`
	SavedAt     time.Time               `json:"saved_at"`
	Version     string                  `json:"version"`
}

// Validate ensures document integrity
func (d *Document) Validate() error {
	if d.ID == "" {
		return ErrInvalidDocumentID
	}
	if d.Name == "" {
		return ErrInvalidFlowName
	}
	if d.Nodes == nil {
		return ErrNilNodes
	}
	for i := range d.Nodes {
		if err := d.Nodes[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

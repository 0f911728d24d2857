// Package dto carries the request and response shapes of the session API.
// These are the wire types the server and CLI exchange; core types never
// cross this boundary directly.
package dto

import "time"

// TriggerRequest asks for a node update on a hosted flow.
type TriggerRequest struct {
	FlowID     string `json:"flow_id"`
	NodeID     string `json:"node_id"`
	InputIndex int    `json:"input_index"` // -1 means no originating input
}

// Validate checks required fields and fills defaults.
func (r *TriggerRequest) Validate() error {
	if r.FlowID == "" {
		return ErrMissingFlowID
	}
	if r.NodeID == "" {
		return ErrMissingNodeID
	}
	if r.InputIndex < -1 {
		return ErrInvalidInputIndex
	}
	return nil
}

// SetInputRequest pushes a value into an input widget.
type SetInputRequest struct {
	FlowID     string      `json:"flow_id"`
	NodeID     string      `json:"node_id"`
	InputIndex int         `json:"input_index"`
	Value      interface{} `json:"value"`
}

func (r *SetInputRequest) Validate() error {
	if r.FlowID == "" {
		return ErrMissingFlowID
	}
	if r.NodeID == "" {
		return ErrMissingNodeID
	}
	if r.InputIndex < 0 {
		return ErrInvalidInputIndex
	}
	return nil
}

// ActionRequest invokes a node's special action by menu path.
type ActionRequest struct {
	FlowID string   `json:"flow_id"`
	NodeID string   `json:"node_id"`
	Path   []string `json:"path"`
}

func (r *ActionRequest) Validate() error {
	if r.FlowID == "" {
		return ErrMissingFlowID
	}
	if r.NodeID == "" {
		return ErrMissingNodeID
	}
	if len(r.Path) == 0 {
		return ErrMissingActionPath
	}
	return nil
}

// SpawnNodeRequest adds a node of a registered kind to a hosted flow.
type SpawnNodeRequest struct {
	FlowID string `json:"flow_id"`
	Kind   string `json:"kind"`
}

func (r *SpawnNodeRequest) Validate() error {
	if r.FlowID == "" {
		return ErrMissingFlowID
	}
	if r.Kind == "" {
		return ErrMissingName
	}
	return nil
}

// EdgeRequest connects or disconnects two ports.
type EdgeRequest struct {
	FlowID  string `json:"flow_id"`
	OutNode string `json:"out_node"`
	OutPort int    `json:"out_port"`
	InNode  string `json:"in_node"`
	InPort  int    `json:"in_port"`
}

func (r *EdgeRequest) Validate() error {
	if r.FlowID == "" {
		return ErrMissingFlowID
	}
	if r.OutNode == "" || r.InNode == "" {
		return ErrMissingNodeID
	}
	if r.OutPort < 0 || r.InPort < 0 {
		return ErrInvalidInputIndex
	}
	return nil
}

// SaveFlowRequest archives a hosted flow to the document store.
type SaveFlowRequest struct {
	FlowID string   `json:"flow_id"`
	Tags   []string `json:"tags,omitempty"`
	Notes  string   `json:"notes,omitempty"`
}

func (r *SaveFlowRequest) Validate() error {
	if r.FlowID == "" {
		return ErrMissingFlowID
	}
	return nil
}

// CreateFlowRequest creates a fresh, empty hosted flow.
type CreateFlowRequest struct {
	Name string `json:"name"`
}

func (r *CreateFlowRequest) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}
	return nil
}

// FlowSummary describes a hosted flow.
type FlowSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
}

// NodeSummary describes one node of a hosted flow.
type NodeSummary struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Phase       string  `json:"phase"`
	InputCount  int     `json:"input_count"`
	OutputCount int     `json:"output_count"`
	PositionX   float64 `json:"position_x"`
	PositionY   float64 `json:"position_y"`
}

// SaveFlowResponse reports the archived document.
type SaveFlowResponse struct {
	DocumentID string    `json:"document_id"`
	FlowID     string    `json:"flow_id"`
	SavedAt    time.Time `json:"saved_at"`
}

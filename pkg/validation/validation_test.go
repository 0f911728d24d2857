package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/internal/core/document"
)

type kindForm struct {
	Name     string `json:"name" validate:"required,node_kind"`
	PortType string `json:"port_type" validate:"omitempty,port_type"`
	Position string `json:"widget_position" validate:"widget_position"`
}

func TestStruct_CustomTags(t *testing.T) {
	tests := []struct {
		name    string
		form    kindForm
		wantErr bool
		field   string
	}{
		{"valid", kindForm{Name: "math.add", PortType: "data", Position: "under"}, false, ""},
		{"empty name", kindForm{PortType: "data"}, true, "name"},
		{"bad kind chars", kindForm{Name: "no spaces allowed"}, true, "name"},
		{"bad port type", kindForm{Name: "x", PortType: "signal"}, true, "port_type"},
		{"bad position", kindForm{Name: "x", Position: "left"}, true, "widget_position"},
		{"empty position ok", kindForm{Name: "x"}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.form)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			verrs, ok := err.(Errors)
			require.True(t, ok)
			require.NotEmpty(t, verrs)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func twoNodeDoc() *document.Document {
	return &document.Document{
		ID:   "d1",
		Name: "test",
		Nodes: []document.NodeDescription{
			{
				ID:   "a",
				Kind: "const",
				Outputs: []document.PortDescription{
					{Type: document.PortTypeData, Label: "value"},
					{Type: document.PortTypeExec, Label: "done"},
				},
			},
			{
				ID:   "b",
				Kind: "print",
				Inputs: []document.PortDescription{
					{Type: document.PortTypeData, Label: "in"},
					{Type: document.PortTypeExec, Label: "run"},
				},
			},
		},
	}
}

func TestDocument_Valid(t *testing.T) {
	doc := twoNodeDoc()
	doc.Connections = []document.ConnectionDescription{
		{OutNode: "a", OutPort: 0, InNode: "b", InPort: 0},
		{OutNode: "a", OutPort: 1, InNode: "b", InPort: 1},
	}
	assert.NoError(t, Document(doc))
}

func TestDocument_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(doc *document.Document)
		message string
	}{
		{
			"unknown out node",
			func(doc *document.Document) {
				doc.Connections = []document.ConnectionDescription{
					{OutNode: "ghost", OutPort: 0, InNode: "b", InPort: 0},
				}
			},
			"unknown node id",
		},
		{
			"output index out of range",
			func(doc *document.Document) {
				doc.Connections = []document.ConnectionDescription{
					{OutNode: "a", OutPort: 5, InNode: "b", InPort: 0},
				}
			},
			"output index out of range",
		},
		{
			"type mismatch",
			func(doc *document.Document) {
				doc.Connections = []document.ConnectionDescription{
					{OutNode: "a", OutPort: 0, InNode: "b", InPort: 1},
				}
			},
			"port types do not match",
		},
		{
			"data fan-in",
			func(doc *document.Document) {
				doc.Nodes = append(doc.Nodes, document.NodeDescription{
					ID:   "c",
					Kind: "const",
					Outputs: []document.PortDescription{
						{Type: document.PortTypeData, Label: "value"},
					},
				})
				doc.Connections = []document.ConnectionDescription{
					{OutNode: "a", OutPort: 0, InNode: "b", InPort: 0},
					{OutNode: "c", OutPort: 0, InNode: "b", InPort: 0},
				}
			},
			"already has an incoming connection",
		},
		{
			"duplicate node id",
			func(doc *document.Document) {
				doc.Nodes = append(doc.Nodes, document.NodeDescription{ID: "a", Kind: "const"})
			},
			"duplicate node id",
		},
		{
			"widget on exec input",
			func(doc *document.Document) {
				doc.Nodes[1].Inputs[1].HasWidget = true
				doc.Nodes[1].Inputs[1].WidgetType = "value"
			},
			"exec inputs cannot carry widgets",
		},
		{
			"widget without type",
			func(doc *document.Document) {
				doc.Nodes[1].Inputs[0].HasWidget = true
			},
			"widget type required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := twoNodeDoc()
			tt.mutate(doc)
			err := Document(doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDocument_NilDocument(t *testing.T) {
	assert.Error(t, Document(nil))
}

func TestDocument_ExecFanInAllowed(t *testing.T) {
	doc := twoNodeDoc()
	doc.Nodes = append(doc.Nodes, document.NodeDescription{
		ID:   "c",
		Kind: "button",
		Outputs: []document.PortDescription{
			{Type: document.PortTypeExec, Label: "click"},
		},
	})
	doc.Connections = []document.ConnectionDescription{
		{OutNode: "a", OutPort: 1, InNode: "b", InPort: 1},
		{OutNode: "c", OutPort: 0, InNode: "b", InPort: 1},
	}
	assert.NoError(t, Document(doc))
}

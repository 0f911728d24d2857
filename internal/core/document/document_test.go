package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				ID:    "doc-1",
				Name:  "patch",
				Nodes: []NodeDescription{},
			},
			wantErr: nil,
		},
		{
			name:    "missing id",
			doc:     &Document{Name: "patch", Nodes: []NodeDescription{}},
			wantErr: ErrInvalidDocumentID,
		},
		{
			name:    "missing name",
			doc:     &Document{ID: "doc-1", Nodes: []NodeDescription{}},
			wantErr: ErrInvalidFlowName,
		},
		{
			name:    "nil nodes",
			doc:     &Document{ID: "doc-1", Name: "patch"},
			wantErr: ErrNilNodes,
		},
		{
			name: "bad node kind",
			doc: &Document{
				ID:    "doc-1",
				Name:  "patch",
				Nodes: []NodeDescription{{ID: "n1"}},
			},
			wantErr: ErrMissingNodeKind,
		},
		{
			name: "bad port type",
			doc: &Document{
				ID:   "doc-1",
				Name: "patch",
				Nodes: []NodeDescription{{
					ID:     "n1",
					Kind:   "add",
					Inputs: []PortDescription{{Type: "control", Label: "x"}},
				}},
			},
			wantErr: ErrInvalidPortType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateActions(t *testing.T) {
	tests := []struct {
		name    string
		actions map[string]interface{}
		wantErr error
	}{
		{
			name:    "leaf with method and data",
			actions: map[string]interface{}{"reset": map[string]interface{}{"method": "reset", "data": 0}},
		},
		{
			name: "nested submenu",
			actions: map[string]interface{}{
				"edit": map[string]interface{}{
					"clear": map[string]interface{}{"method": "clear"},
				},
			},
		},
		{
			name:    "non-mapping entry",
			actions: map[string]interface{}{"broken": 42},
			wantErr: ErrEmptyAction,
		},
		{
			name:    "empty entry",
			actions: map[string]interface{}{"broken": map[string]interface{}{}},
			wantErr: ErrEmptyAction,
		},
		{
			name: "method mixed with submenu keys",
			actions: map[string]interface{}{
				"broken": map[string]interface{}{"method": "x", "more": map[string]interface{}{}},
			},
			wantErr: ErrAmbiguousAction,
		},
		{
			name:    "non-string method",
			actions: map[string]interface{}{"broken": map[string]interface{}{"method": 1}},
			wantErr: ErrEmptyAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateActions(tt.actions)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilter_Validate(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	assert.NoError(t, (&Filter{Limit: 10, Offset: 5}).Validate())
	assert.ErrorIs(t, (&Filter{Limit: -1}).Validate(), ErrInvalidLimit)
	assert.ErrorIs(t, (&Filter{Offset: -1}).Validate(), ErrInvalidOffset)
	assert.ErrorIs(t, (&Filter{Since: &now, Before: &earlier}).Validate(), ErrInvalidTimeRange)
	assert.NoError(t, (&Filter{Since: &earlier, Before: &now}).Validate())
}

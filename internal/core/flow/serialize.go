package flow

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nodeflow/nodeflow/internal/core/document"
	"github.com/nodeflow/nodeflow/internal/core/node"
)

// DocumentVersion tags the wire format produced by Describe.
const DocumentVersion = "1.0"

// Describe emits the persisted document for the whole flow: every node's
// description in insertion order plus the connection edges, recorded from the
// output side so each edge appears once.
func (f *Flow) Describe() (*document.Document, error) {
	doc := &document.Document{
		ID:      uuid.New().String(),
		FlowID:  f.id,
		Name:    f.name,
		Nodes:   make([]document.NodeDescription, 0, len(f.nodes)),
		SavedAt: time.Now().UTC(),
		Version: DocumentVersion,
	}

	for _, n := range f.nodes {
		desc, err := n.Describe()
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID(), err)
		}
		doc.Nodes = append(doc.Nodes, *desc)

		for outIdx, out := range n.Outputs() {
			for _, peer := range out.Connections() {
				owner := peer.Owner()
				if owner == nil {
					continue
				}
				inIdx, ok := owner.InputIndex(peer)
				if !ok {
					continue
				}
				doc.Connections = append(doc.Connections, document.ConnectionDescription{
					OutNode: n.ID(),
					OutPort: outIdx,
					InNode:  owner.InstanceID(),
					InPort:  inIdx,
				})
			}
		}
	}

	return doc, nil
}

// Restore rebuilds a flow from a persisted document: nodes first (each via
// node.Restore, exactly as described), then the edges by node ID and port
// index.
func Restore(reg *node.Registry, doc *document.Document, logger *slog.Logger) (*Flow, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	f := New(doc.Name, logger)
	f.id = doc.FlowID
	if f.id == "" {
		f.id = uuid.New().String()
	}

	for i := range doc.Nodes {
		n, err := node.Restore(reg, &doc.Nodes[i], f.logger)
		if err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, doc.Nodes[i].Kind, err)
		}
		if err := f.AddNode(n); err != nil {
			return nil, err
		}
	}

	for _, conn := range doc.Connections {
		if err := f.Connect(conn.OutNode, conn.OutPort, conn.InNode, conn.InPort); err != nil {
			return nil, fmt.Errorf("connection %s[%d] -> %s[%d]: %w",
				conn.OutNode, conn.OutPort, conn.InNode, conn.InPort, err)
		}
	}

	return f, nil
}

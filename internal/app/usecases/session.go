// Package usecases orchestrates the application layer: a Session hosts live
// flows, funnels every mutation through the shared event loop, and moves
// flows between their live form and archived documents.
package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nodeflow/nodeflow/internal/app/dto"
	"github.com/nodeflow/nodeflow/internal/app/services"
	"github.com/nodeflow/nodeflow/internal/core/document"
	"github.com/nodeflow/nodeflow/internal/core/eventloop"
	"github.com/nodeflow/nodeflow/internal/core/flow"
	"github.com/nodeflow/nodeflow/internal/core/node"
)

// Session hosts live flows for one process. All structural edits and
// triggers run on the session's event loop, so node update code never needs
// its own locking.
type Session struct {
	kinds   *node.Registry
	flows   FlowRegistry
	archive *services.Archive
	loop    *eventloop.Loop
	logger  *slog.Logger
}

// Config wires a session's collaborators.
type Config struct {
	Kinds   *node.Registry
	Flows   FlowRegistry
	Archive *services.Archive
	Loop    *eventloop.Loop
	Logger  *slog.Logger
}

// NewSession creates a session. Loop and Logger fall back to defaults.
func NewSession(cfg Config) *Session {
	if cfg.Loop == nil {
		cfg.Loop = eventloop.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{
		kinds:   cfg.Kinds,
		flows:   cfg.Flows,
		archive: cfg.Archive,
		loop:    cfg.Loop,
		logger:  cfg.Logger,
	}
}

// Loop exposes the session's event loop, for node workers that need to post
// results back to the flow thread.
func (s *Session) Loop() *eventloop.Loop { return s.loop }

// Kinds exposes the session's kind registry.
func (s *Session) Kinds() *node.Registry { return s.kinds }

// Archive exposes the document archive, for listing and deleting saves.
func (s *Session) Archive() *services.Archive { return s.archive }

// CreateFlow starts hosting a fresh, empty flow.
func (s *Session) CreateFlow(ctx context.Context, req *dto.CreateFlowRequest) (*dto.FlowSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f := flow.New(req.Name, s.logger)
	if err := s.flows.Put(f); err != nil {
		return nil, err
	}
	s.logger.Info("flow created", "flow_id", f.ID(), "flow", f.Name())
	return summarize(f), nil
}

// OpenFlow loads a document from the archive and hosts the restored flow.
func (s *Session) OpenFlow(ctx context.Context, documentID string) (*dto.FlowSummary, error) {
	doc, err := s.archive.Load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	f, err := flow.Restore(s.kinds, doc, s.logger)
	if err != nil {
		return nil, fmt.Errorf("restore flow: %w", err)
	}
	if err := s.flows.Put(f); err != nil {
		return nil, err
	}
	s.logger.Info("flow opened", "flow_id", f.ID(), "document_id", documentID)
	return summarize(f), nil
}

// SaveFlow describes a hosted flow and archives the document.
func (s *Session) SaveFlow(ctx context.Context, req *dto.SaveFlowRequest) (*dto.SaveFlowResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f, err := s.flows.Get(req.FlowID)
	if err != nil {
		return nil, err
	}

	var doc *document.Document
	var describeErr error
	if err := s.loop.Sync(ctx, func() {
		doc, describeErr = f.Describe()
	}); err != nil {
		return nil, err
	}
	if describeErr != nil {
		return nil, fmt.Errorf("describe flow: %w", describeErr)
	}

	doc.Metadata.Tags = req.Tags
	doc.Metadata.Notes = req.Notes
	if err := s.archive.Save(ctx, doc); err != nil {
		return nil, err
	}
	return &dto.SaveFlowResponse{
		DocumentID: doc.ID,
		FlowID:     doc.FlowID,
		SavedAt:    doc.SavedAt,
	}, nil
}

// CloseFlow removes a flow from the session, stopping every node's workers.
func (s *Session) CloseFlow(ctx context.Context, flowID string) error {
	f, err := s.flows.Get(flowID)
	if err != nil {
		return err
	}
	var closeErr error
	if err := s.loop.Sync(ctx, func() {
		for _, n := range f.Nodes() {
			if err := f.RemoveNode(ctx, n.ID()); err != nil && closeErr == nil {
				closeErr = err
			}
		}
	}); err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}
	return s.flows.Remove(flowID)
}

// Trigger runs a node update on the flow thread and waits for the cascade
// started by it to finish.
func (s *Session) Trigger(ctx context.Context, req *dto.TriggerRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	f, err := s.flows.Get(req.FlowID)
	if err != nil {
		return err
	}
	var triggerErr error
	if err := s.loop.Sync(ctx, func() {
		triggerErr = f.Trigger(req.NodeID, req.InputIndex)
	}); err != nil {
		return err
	}
	return triggerErr
}

// SetInput writes a value into an input widget and updates the node.
func (s *Session) SetInput(ctx context.Context, req *dto.SetInputRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	f, err := s.flows.Get(req.FlowID)
	if err != nil {
		return err
	}
	var setErr error
	if err := s.loop.Sync(ctx, func() {
		setErr = setInput(f, req)
	}); err != nil {
		return err
	}
	return setErr
}

func setInput(f *flow.Flow, req *dto.SetInputRequest) error {
	n, err := f.Node(req.NodeID)
	if err != nil {
		return err
	}
	inputs := n.Inputs()
	if req.InputIndex >= len(inputs) {
		return node.ErrPortIndexOutOfRange
	}
	in := inputs[req.InputIndex]
	if !in.HasWidget() {
		return fmt.Errorf("input %d of node %s has no widget", req.InputIndex, req.NodeID)
	}
	if err := in.Widget().SetData(req.Value); err != nil {
		return fmt.Errorf("set widget data: %w", err)
	}
	n.Update(req.InputIndex)
	return nil
}

// InvokeAction runs a node's special action by menu path.
func (s *Session) InvokeAction(ctx context.Context, req *dto.ActionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	f, err := s.flows.Get(req.FlowID)
	if err != nil {
		return err
	}
	var actionErr error
	if err := s.loop.Sync(ctx, func() {
		n, err := f.Node(req.NodeID)
		if err != nil {
			actionErr = err
			return
		}
		actionErr = n.InvokeSpecialAction(req.Path...)
	}); err != nil {
		return err
	}
	return actionErr
}

// SpawnNode adds a node of a registered kind to a hosted flow.
func (s *Session) SpawnNode(ctx context.Context, req *dto.SpawnNodeRequest) (*dto.NodeSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f, err := s.flows.Get(req.FlowID)
	if err != nil {
		return nil, err
	}
	kind, err := s.kinds.Get(req.Kind)
	if err != nil {
		return nil, err
	}
	var n *node.Instance
	var spawnErr error
	if err := s.loop.Sync(ctx, func() {
		n, spawnErr = f.Spawn(kind)
	}); err != nil {
		return nil, err
	}
	if spawnErr != nil {
		return nil, spawnErr
	}
	return summarizeNode(n), nil
}

// RemoveNode removes a node from a hosted flow, severing its connections.
func (s *Session) RemoveNode(ctx context.Context, flowID, nodeID string) error {
	f, err := s.flows.Get(flowID)
	if err != nil {
		return err
	}
	var removeErr error
	if err := s.loop.Sync(ctx, func() {
		removeErr = f.RemoveNode(ctx, nodeID)
	}); err != nil {
		return err
	}
	return removeErr
}

// Connect joins two ports on a hosted flow.
func (s *Session) Connect(ctx context.Context, req *dto.EdgeRequest) error {
	return s.edit(ctx, req, func(f *flow.Flow) error {
		return f.Connect(req.OutNode, req.OutPort, req.InNode, req.InPort)
	})
}

// Disconnect severs two ports on a hosted flow.
func (s *Session) Disconnect(ctx context.Context, req *dto.EdgeRequest) error {
	return s.edit(ctx, req, func(f *flow.Flow) error {
		return f.Disconnect(req.OutNode, req.OutPort, req.InNode, req.InPort)
	})
}

func (s *Session) edit(ctx context.Context, req *dto.EdgeRequest, fn func(*flow.Flow) error) error {
	if err := req.Validate(); err != nil {
		return err
	}
	f, err := s.flows.Get(req.FlowID)
	if err != nil {
		return err
	}
	var editErr error
	if err := s.loop.Sync(ctx, func() {
		editErr = fn(f)
	}); err != nil {
		return err
	}
	return editErr
}

// ListFlows summarizes the hosted flows.
func (s *Session) ListFlows(ctx context.Context) []*dto.FlowSummary {
	flows := s.flows.All()
	out := make([]*dto.FlowSummary, 0, len(flows))
	for _, f := range flows {
		out = append(out, summarize(f))
	}
	return out
}

// Nodes summarizes the nodes of one hosted flow.
func (s *Session) Nodes(ctx context.Context, flowID string) ([]*dto.NodeSummary, error) {
	f, err := s.flows.Get(flowID)
	if err != nil {
		return nil, err
	}
	var out []*dto.NodeSummary
	if err := s.loop.Sync(ctx, func() {
		for _, n := range f.Nodes() {
			out = append(out, summarizeNode(n))
		}
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// Close shuts the session down: every hosted flow is closed, then the loop.
func (s *Session) Close(ctx context.Context) error {
	for _, f := range s.flows.All() {
		if err := s.CloseFlow(ctx, f.ID()); err != nil {
			s.logger.Warn("closing flow failed", "flow_id", f.ID(), "error", err)
		}
	}
	return s.loop.Close()
}

func summarize(f *flow.Flow) *dto.FlowSummary {
	return &dto.FlowSummary{
		ID:        f.ID(),
		Name:      f.Name(),
		NodeCount: len(f.Nodes()),
	}
}

func summarizeNode(n *node.Instance) *dto.NodeSummary {
	return &dto.NodeSummary{
		ID:          n.ID(),
		Kind:        n.Kind().Name,
		Phase:       string(n.Phase()),
		InputCount:  len(n.Inputs()),
		OutputCount: len(n.Outputs()),
		PositionX:   n.Position().X,
		PositionY:   n.Position().Y,
	}
}

package nodeflow

import (
	"context"
	"log/slog"

	"github.com/nodeflow/nodeflow/internal/adapters/repository/live"
	"github.com/nodeflow/nodeflow/internal/adapters/repository/memory"
	"github.com/nodeflow/nodeflow/internal/app/dto"
	"github.com/nodeflow/nodeflow/internal/app/services"
	"github.com/nodeflow/nodeflow/internal/app/usecases"
	"github.com/nodeflow/nodeflow/internal/core/document"
	"github.com/nodeflow/nodeflow/internal/core/eventloop"
	"github.com/nodeflow/nodeflow/internal/core/flow"
	"github.com/nodeflow/nodeflow/internal/core/node"
	"github.com/nodeflow/nodeflow/internal/core/port"
)

// Re-export core types for convenience
type (
	Kind         = node.Kind
	PortTemplate = node.PortTemplate
	Instance     = node.Instance
	Action       = node.Action
	Flow         = flow.Flow
	Document     = document.Document
	Widget       = port.Widget
	WidgetSpec   = port.WidgetSpec
)

// Port kinds and the no-input marker, re-exported so embedders never import
// internal packages.
const (
	KindData = port.KindData
	KindExec = port.KindExec
	NoInput  = node.NoInput
)

// Runtime is a façade over a session with in-memory components, suitable for
// embedding the engine in tools and tests. Server deployments wire the
// session against SQL-backed stores instead.
type Runtime struct {
	session *usecases.Session
	kinds   *node.Registry
}

// Options tunes a runtime. Zero values mean in-memory defaults.
type Options struct {
	Store  document.Store
	Logger *slog.Logger
}

// NewRuntime constructs a runtime with in-memory components.
func NewRuntime() *Runtime { return NewRuntimeWith(Options{}) }

// NewRuntimeWith constructs a runtime with the given collaborators.
func NewRuntimeWith(opts Options) *Runtime {
	if opts.Store == nil {
		opts.Store = memory.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	kinds := node.NewRegistry()
	session := usecases.NewSession(usecases.Config{
		Kinds:   kinds,
		Flows:   live.NewRegistry(),
		Archive: services.NewArchive(opts.Store, opts.Logger),
		Loop:    eventloop.Default(),
		Logger:  opts.Logger,
	})
	return &Runtime{session: session, kinds: kinds}
}

// RegisterKind makes a node kind available to flows hosted by this runtime.
func (rt *Runtime) RegisterKind(k *Kind) error {
	return rt.kinds.Register(k)
}

// Session exposes the underlying session for advanced use.
func (rt *Runtime) Session() *usecases.Session { return rt.session }

// NewFlow starts hosting a fresh flow and returns its summary.
func (rt *Runtime) NewFlow(ctx context.Context, name string) (*dto.FlowSummary, error) {
	return rt.session.CreateFlow(ctx, &dto.CreateFlowRequest{Name: name})
}

// Spawn adds a node of a registered kind to a hosted flow.
func (rt *Runtime) Spawn(ctx context.Context, flowID, kind string) (*dto.NodeSummary, error) {
	return rt.session.SpawnNode(ctx, &dto.SpawnNodeRequest{FlowID: flowID, Kind: kind})
}

// Connect joins an output port to an input port.
func (rt *Runtime) Connect(ctx context.Context, flowID, outNode string, outPort int, inNode string, inPort int) error {
	return rt.session.Connect(ctx, &dto.EdgeRequest{
		FlowID: flowID, OutNode: outNode, OutPort: outPort, InNode: inNode, InPort: inPort,
	})
}

// SetInput pushes a value into an input widget and updates the node.
func (rt *Runtime) SetInput(ctx context.Context, flowID, nodeID string, inputIndex int, value interface{}) error {
	return rt.session.SetInput(ctx, &dto.SetInputRequest{
		FlowID: flowID, NodeID: nodeID, InputIndex: inputIndex, Value: value,
	})
}

// Trigger runs a node update on the flow thread.
func (rt *Runtime) Trigger(ctx context.Context, flowID, nodeID string, inputIndex int) error {
	return rt.session.Trigger(ctx, &dto.TriggerRequest{
		FlowID: flowID, NodeID: nodeID, InputIndex: inputIndex,
	})
}

// Save archives a hosted flow and returns the document ID.
func (rt *Runtime) Save(ctx context.Context, flowID string) (string, error) {
	resp, err := rt.session.SaveFlow(ctx, &dto.SaveFlowRequest{FlowID: flowID})
	if err != nil {
		return "", err
	}
	return resp.DocumentID, nil
}

// Open restores an archived flow and starts hosting it.
func (rt *Runtime) Open(ctx context.Context, documentID string) (*dto.FlowSummary, error) {
	return rt.session.OpenFlow(ctx, documentID)
}

// Close shuts the runtime down, stopping all hosted flows and their workers.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.session.Close(ctx)
}

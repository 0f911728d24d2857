package main

import (
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"

	"github.com/nodeflow/nodeflow/internal/app/dto"
	"github.com/nodeflow/nodeflow/internal/app/usecases"
	"github.com/nodeflow/nodeflow/internal/core/document"
	coreflow "github.com/nodeflow/nodeflow/internal/core/flow"
	"github.com/nodeflow/nodeflow/internal/core/node"
)

// server exposes a usecases.Session over HTTP.
type server struct {
	session *usecases.Session
	logger  *slog.Logger
}

func newServer(session *usecases.Session, logger *slog.Logger) *server {
	if logger == nil {
		logger = slog.Default()
	}
	return &server{session: session, logger: logger}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "nodeflow server is running. See /healthz, /metrics, /debug/vars, /debug/pprof/")
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("/metrics", promMetricsHandler)

	mux.Handle("GET /debug/vars", expvar.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Synthetic propagation load for watching /metrics under traffic.
	wm := &workloadManager{session: s.session}
	mux.HandleFunc("POST /workload/propagation/start", wm.start)
	mux.HandleFunc("POST /workload/propagation/stop", wm.stop)

	mux.HandleFunc("GET /api/kinds", s.handleKinds)
	mux.HandleFunc("GET /api/flows", s.handleListFlows)
	mux.HandleFunc("POST /api/flows", s.handleCreateFlow)
	mux.HandleFunc("GET /api/flows/{id}/nodes", s.handleNodes)
	mux.HandleFunc("DELETE /api/flows/{id}", s.handleCloseFlow)
	mux.HandleFunc("POST /api/nodes", s.handleSpawnNode)
	mux.HandleFunc("DELETE /api/flows/{id}/nodes/{node}", s.handleRemoveNode)
	mux.HandleFunc("POST /api/connections", s.handleConnect)
	mux.HandleFunc("DELETE /api/connections", s.handleDisconnect)
	mux.HandleFunc("POST /api/trigger", s.handleTrigger)
	mux.HandleFunc("POST /api/input", s.handleSetInput)
	mux.HandleFunc("POST /api/action", s.handleAction)
	mux.HandleFunc("POST /api/save", s.handleSave)
	mux.HandleFunc("POST /api/open/{id}", s.handleOpen)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)

	return mux
}

func (s *server) handleKinds(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"kinds": s.session.Kinds().Names()})
}

func (s *server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"flows": s.session.ListFlows(r.Context())})
}

func (s *server) handleCreateFlow(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateFlowRequest
	if !s.decode(w, r, &req) {
		return
	}
	summary, err := s.session.CreateFlow(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, summary)
}

func (s *server) handleNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.session.Nodes(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

func (s *server) handleCloseFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.session.CloseFlow(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSpawnNode(w http.ResponseWriter, r *http.Request) {
	var req dto.SpawnNodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	summary, err := s.session.SpawnNode(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, summary)
}

func (s *server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	if err := s.session.RemoveNode(r.Context(), r.PathValue("id"), r.PathValue("node")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req dto.EdgeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.session.Connect(r.Context(), &req); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req dto.EdgeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.session.Disconnect(r.Context(), &req); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req dto.TriggerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.session.Trigger(r.Context(), &req); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSetInput(w http.ResponseWriter, r *http.Request) {
	var req dto.SetInputRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.session.SetInput(r.Context(), &req); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req dto.ActionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.session.InvokeAction(r.Context(), &req); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveFlowRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.session.SaveFlow(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *server) handleOpen(w http.ResponseWriter, r *http.Request) {
	summary, err := s.session.OpenFlow(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	filter := document.Filter{
		FlowID: r.URL.Query().Get("flow_id"),
		Name:   r.URL.Query().Get("name"),
	}
	docs, err := s.session.Archive().List(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	summaries := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, map[string]any{
			"id":       d.ID,
			"flow_id":  d.FlowID,
			"name":     d.Name,
			"saved_at": d.SavedAt,
			"nodes":    len(d.Nodes),
			"tags":     d.Metadata.Tags,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"documents": summaries})
}

func (s *server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Archive().Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes. Validation failures
// are 400s, missing entities 404s, everything else a 500.
func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, coreflow.ErrFlowNotFound),
		errors.Is(err, coreflow.ErrNodeNotFound),
		errors.Is(err, node.ErrKindNotFound),
		errors.Is(err, document.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dto.ErrMissingFlowID),
		errors.Is(err, dto.ErrMissingNodeID),
		errors.Is(err, dto.ErrMissingName),
		errors.Is(err, dto.ErrMissingActionPath),
		errors.Is(err, dto.ErrInvalidInputIndex):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

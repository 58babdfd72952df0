// Package http serves the panel over a JSON control API with a server-sent event stream.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/meshpanel"
	"github.com/aretw0/meshpanel/internal/logging"
	"github.com/aretw0/meshpanel/internal/presentation/graph"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/interaction"
	"github.com/aretw0/meshpanel/pkg/surface"
	"github.com/aretw0/meshpanel/pkg/toolbar"
	"github.com/go-chi/chi/v5"
)

// Panel is the subset of meshpanel.Panel the control API drives.
type Panel interface {
	Store() *toolbar.Store
	Surface() *surface.Surface
	Tap(ctx context.Context, ev domain.TapEvent) (interaction.Outcome, error)
	TapAt(ctx context.Context, pos domain.Position) (interaction.Outcome, error)
	TapNode(ctx context.Context, id string) (interaction.Outcome, error)
	Refresh(ctx context.Context) error
	NodeDetail(ctx context.Context, id string) (domain.NodeDetail, error)
	CrashNode(ctx context.Context, id string) error
	RemoveEdge(ctx context.Context, fromID, toID string) error
	SetPacketDropRate(ctx context.Context, id string, pdr float64) error
	Logs(ctx context.Context, level string, limit int) ([]domain.LogEntry, error)
	Configurations(ctx context.Context) ([]domain.Configuration, error)
	ApplyConfiguration(ctx context.Context, id string) error
}

var _ Panel = (*meshpanel.Panel)(nil)

// Server holds the handlers of the control API.
type Server struct {
	Panel   Panel
	Streams *StreamManager

	metrics   http.Handler
	logger    *slog.Logger
	logsLimit int
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts a metrics handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLogsLimit sets the default number of log entries returned by /logs.
func WithLogsLimit(n int) Option {
	return func(s *Server) {
		s.logsLimit = n
	}
}

// NewHandler creates the HTTP handler for a panel. The returned stop function detaches
// the toolbar subscription feeding the event stream.
func NewHandler(panel Panel, opts ...Option) (http.Handler, func()) {
	s := &Server{
		Panel:     panel,
		logger:    logging.NewNop(),
		logsLimit: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	unsubscribe := panel.Store().Subscribe(func(c toolbar.Change) {
		s.Streams.Broadcast(TopicToolbar, c)
	})

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Get("/surface", s.GetSurface)
	r.Get("/surface/mermaid", s.GetSurfaceMermaid)
	r.Post("/refresh", s.PostRefresh)
	r.Post("/tap", s.PostTap)

	r.Route("/toolbar", func(r chi.Router) {
		r.Get("/", s.GetToolbar)
		r.Put("/tool", s.PutTool)
		r.Put("/node-type", s.PutNodeType)
		r.Put("/template", s.PutTemplate)
		r.Put("/message", s.PutMessage)
	})

	r.Get("/catalog", s.GetCatalog)
	r.Get("/nodes/{id}", s.GetNode)
	r.Delete("/nodes/{id}", s.DeleteNode)
	r.Delete("/edges", s.DeleteEdge)
	r.Patch("/drones/{id}/pdr", s.PatchPDR)
	r.Get("/logs", s.GetLogs)
	r.Get("/configurations", s.GetConfigurations)
	r.Post("/configurations", s.PostConfiguration)

	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return enableCORS(r), unsubscribe
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Helpers --

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

// writeError maps validation errors to 400, unknown nodes to 404 and backend errors to 502.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Warn(op+" rejected", "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBackend):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTemplateRequired),
		errors.Is(err, domain.ErrMessageTypeRequired),
		errors.Is(err, domain.ErrInvalidPDR),
		errors.Is(err, domain.ErrUnknownMessageType),
		errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrUnknownSubType),
		errors.Is(err, domain.ErrInvalidNodeType),
		errors.Is(err, domain.ErrInvalidTool),
		errors.Is(err, domain.ErrInvalidNodeID):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn(op+": invalid request body", "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// -- Handlers --

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "meshpanel-http",
		"version": strings.TrimSpace(meshpanel.Version),
	})
}

// GetSurface handles GET /surface.
func (s *Server) GetSurface(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Panel.Surface().Snapshot())
}

// GetSurfaceMermaid handles GET /surface/mermaid.
func (s *Server) GetSurfaceMermaid(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(s.Panel.Surface().Snapshot())))
}

// PostRefresh handles POST /refresh.
func (s *Server) PostRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Panel.Refresh(r.Context()); err != nil {
		s.writeError(w, "Refresh", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Panel.Surface().Snapshot())
}

// TapRequest is a tap on a node (node_id) or on the background at a position.
type TapRequest struct {
	NodeID string  `json:"node_id,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// TapResponse reports the outcome of a tap.
type TapResponse struct {
	Outcome interaction.Outcome `json:"outcome"`
	Error   string              `json:"error,omitempty"`
}

// PostTap handles POST /tap.
func (s *Server) PostTap(w http.ResponseWriter, r *http.Request) {
	var req TapRequest
	if !s.decode(w, r, "Tap", &req) {
		return
	}

	var (
		out interaction.Outcome
		err error
	)
	if req.NodeID != "" {
		out, err = s.Panel.TapNode(r.Context(), req.NodeID)
	} else {
		out, err = s.Panel.TapAt(r.Context(), domain.Position{X: req.X, Y: req.Y})
	}
	s.Streams.Broadcast(TopicTap, TapResponse{Outcome: out})

	if err != nil {
		status := statusFor(err)
		s.logger.Warn("Tap failed", "outcome", out, "err", err)
		s.writeJSON(w, status, TapResponse{Outcome: out, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, TapResponse{Outcome: out})
}

// GetToolbar handles GET /toolbar.
func (s *Server) GetToolbar(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Panel.Store().Snapshot())
}

// PutTool handles PUT /toolbar/tool.
func (s *Server) PutTool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tool string `json:"tool"`
	}
	if !s.decode(w, r, "PutTool", &req) {
		return
	}
	tool, err := domain.ParseTool(req.Tool)
	if err != nil {
		s.writeError(w, "PutTool", err)
		return
	}
	s.Panel.Store().SetActiveTool(tool)
	s.writeJSON(w, http.StatusOK, s.Panel.Store().Snapshot())
}

// PutNodeType handles PUT /toolbar/node-type. An empty type clears the selection.
func (s *Server) PutNodeType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NodeType string `json:"node_type"`
	}
	if !s.decode(w, r, "PutNodeType", &req) {
		return
	}
	var nodeType domain.NodeType
	if req.NodeType != "" {
		var err error
		if nodeType, err = domain.ParseNodeType(req.NodeType); err != nil {
			s.writeError(w, "PutNodeType", err)
			return
		}
	}
	s.Panel.Store().SetSelectedNodeType(nodeType)
	s.writeJSON(w, http.StatusOK, s.Panel.Store().Snapshot())
}

// PutTemplate handles PUT /toolbar/template. The template is looked up by name in the
// loaded catalog; a body with a type is accepted as-is.
func (s *Server) PutTemplate(w http.ResponseWriter, r *http.Request) {
	var req domain.Template
	if !s.decode(w, r, "PutTemplate", &req) {
		return
	}
	store := s.Panel.Store()
	if req.Name == "" {
		store.SetSelectedSpecificNode(nil)
		s.writeJSON(w, http.StatusOK, store.Snapshot())
		return
	}
	if req.Type == "" {
		found := false
		for _, tpl := range store.Snapshot().AvailableNodes {
			if strings.EqualFold(tpl.Name, req.Name) {
				req, found = tpl, true
				break
			}
		}
		if !found {
			s.writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("unknown template %q", req.Name)})
			return
		}
	}
	store.SetSelectedSpecificNode(&req)
	s.writeJSON(w, http.StatusOK, store.Snapshot())
}

// MessageRequest updates the message gesture.
type MessageRequest struct {
	MessageType string         `json:"message_type"`
	Payload     map[string]any `json:"payload,omitempty"`
	Selecting   bool           `json:"selecting"`
}

// PutMessage handles PUT /toolbar/message.
func (s *Server) PutMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if !s.decode(w, r, "PutMessage", &req) {
		return
	}
	if req.MessageType != "" {
		if _, err := domain.LookupMessage(req.MessageType); err != nil {
			s.writeError(w, "PutMessage", err)
			return
		}
	}
	store := s.Panel.Store()
	store.SetSelectedMessageType(req.MessageType)
	store.SetMessageFormData(req.Payload)
	store.SetIsSelectingNodes(req.Selecting)
	s.writeJSON(w, http.StatusOK, store.Snapshot())
}

// GetCatalog handles GET /catalog: node templates and message types.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"nodes":    s.Panel.Store().Snapshot().AvailableNodes,
		"messages": domain.MessageCatalog(),
	})
}

// GetNode handles GET /nodes/{id}.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	detail, err := s.Panel.NodeDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "NodeDetail", err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

// DeleteNode handles DELETE /nodes/{id} (crash).
func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.Panel.CrashNode(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "CrashNode", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EdgeRequest names the two endpoints of an edge.
type EdgeRequest struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}

// DeleteEdge handles DELETE /edges.
func (s *Server) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	var req EdgeRequest
	if !s.decode(w, r, "DeleteEdge", &req) {
		return
	}
	if req.FromID == "" || req.ToID == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from_id and to_id are required"})
		return
	}
	if err := s.Panel.RemoveEdge(r.Context(), req.FromID, req.ToID); err != nil {
		s.writeError(w, "RemoveEdge", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PatchPDR handles PATCH /drones/{id}/pdr.
func (s *Server) PatchPDR(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PDR *float64 `json:"pdr"`
	}
	if !s.decode(w, r, "PatchPDR", &req) {
		return
	}
	if req.PDR == nil {
		s.writeError(w, "PatchPDR", domain.ErrInvalidPDR)
		return
	}
	if err := s.Panel.SetPacketDropRate(r.Context(), chi.URLParam(r, "id"), *req.PDR); err != nil {
		s.writeError(w, "PatchPDR", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLogs handles GET /logs?level=&limit=.
func (s *Server) GetLogs(w http.ResponseWriter, r *http.Request) {
	limit := s.logsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}
	entries, err := s.Panel.Logs(r.Context(), r.URL.Query().Get("level"), limit)
	if err != nil {
		s.writeError(w, "Logs", err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// GetConfigurations handles GET /configurations.
func (s *Server) GetConfigurations(w http.ResponseWriter, r *http.Request) {
	configs, err := s.Panel.Configurations(r.Context())
	if err != nil {
		s.writeError(w, "Configurations", err)
		return
	}
	s.writeJSON(w, http.StatusOK, configs)
}

// PostConfiguration handles POST /configurations {id}.
func (s *Server) PostConfiguration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !s.decode(w, r, "PostConfiguration", &req) {
		return
	}
	if req.ID == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id is required"})
		return
	}
	if err := s.Panel.ApplyConfiguration(r.Context(), req.ID); err != nil {
		s.writeError(w, "ApplyConfiguration", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Panel.Surface().Snapshot())
}

// Package mcp exposes the panel as Model Context Protocol tools, so an agent can inspect
// and edit the network topology with the same gestures an operator uses.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/meshpanel"
	"github.com/aretw0/meshpanel/internal/logging"
	"github.com/aretw0/meshpanel/internal/presentation/graph"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/interaction"
	"github.com/aretw0/meshpanel/pkg/toolbar"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SurfaceResponse is the surface plus the toolbar mode.
type SurfaceResponse struct {
	Topology domain.Topology  `json:"topology" jsonschema_description:"Nodes and edges currently drawn"`
	Toolbar  toolbar.Snapshot `json:"toolbar" jsonschema_description:"The active tool and selections"`
	Armed    string           `json:"armed,omitempty" jsonschema_description:"First endpoint of an unfinished edge or message gesture"`
}

// TapResponse reports a tap outcome.
type TapResponse struct {
	Outcome interaction.Outcome `json:"outcome" jsonschema_description:"What the tap did"`
	Error   string              `json:"error,omitempty" jsonschema_description:"Why the gesture was rejected or failed"`
}

// Server wraps a Panel and exposes it as an MCP server.
type Server struct {
	panel     *meshpanel.Panel
	mcpServer *server.MCPServer
	logger    *slog.Logger
	logsLimit int
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLogsLimit sets the default number of entries returned by get_logs.
func WithLogsLimit(n int) Option {
	return func(s *Server) {
		s.logsLimit = n
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(panel *meshpanel.Panel, opts ...Option) *Server {
	s := &Server{
		panel:     panel,
		mcpServer: server.NewMCPServer("meshpanel-mcp", strings.TrimSpace(meshpanel.Version)),
		logger:    logging.NewNop(),
		logsLimit: 50,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_surface",
		mcp.WithDescription("Get the drawn topology, the toolbar mode and the armed endpoint."),
		mcp.WithBoolean("refresh", mcp.Description("Reload the topology from the simulation first")),
		mcp.WithOutputSchema[SurfaceResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetSurface))

	s.mcpServer.AddTool(mcp.NewTool("set_tool",
		mcp.WithDescription("Select the active tool."),
		mcp.WithString("tool", mcp.Required(), mcp.Enum("cursor", "add", "message"), mcp.Description("Tool to activate")),
	), s.handleSetTool)

	s.mcpServer.AddTool(mcp.NewTool("set_node_type",
		mcp.WithDescription("Choose what the add tool places. 'edge' switches to linking two taps."),
		mcp.WithString("node_type", mcp.Required(), mcp.Enum("drone", "client", "server", "edge"), mcp.Description("Node type")),
	), s.handleSetNodeType)

	s.mcpServer.AddTool(mcp.NewTool("select_template",
		mcp.WithDescription("Pick the catalog entry to place, by name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Template name, e.g. 'Rust'")),
	), s.handleSelectTemplate)

	s.mcpServer.AddTool(mcp.NewTool("tap_background",
		mcp.WithDescription("Tap an empty spot of the graph. Places a node when the add tool has a template."),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("X coordinate")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Y coordinate")),
		mcp.WithOutputSchema[TapResponse](),
	), mcp.NewStructuredToolHandler(s.handleTapBackground))

	s.mcpServer.AddTool(mcp.NewTool("tap_node",
		mcp.WithDescription("Tap a node: select it, or arm/complete an edge or message gesture."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID")),
		mcp.WithOutputSchema[TapResponse](),
	), mcp.NewStructuredToolHandler(s.handleTapNode))

	s.mcpServer.AddTool(mcp.NewTool("crash_node",
		mcp.WithDescription("Crash a node in the simulation and remove it with its links."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID")),
	), s.handleCrashNode)

	s.mcpServer.AddTool(mcp.NewTool("set_pdr",
		mcp.WithDescription("Set a drone's packet drop rate."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Drone ID")),
		mcp.WithNumber("pdr", mcp.Required(), mcp.Min(0), mcp.Max(1), mcp.Description("Drop rate between 0 and 1")),
	), s.handleSetPDR)

	s.mcpServer.AddTool(mcp.NewTool("node_detail",
		mcp.WithDescription("Get the simulation's view of a node: neighbours and packet statistics."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID")),
	), s.handleNodeDetail)

	s.mcpServer.AddTool(mcp.NewTool("get_logs",
		mcp.WithDescription("Get simulation logs, newest first."),
		mcp.WithString("level", mcp.Description("Only this level (error, warn, info, debug)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries")),
	), s.handleGetLogs)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) surface() SurfaceResponse {
	return SurfaceResponse{
		Topology: s.panel.Surface().Snapshot(),
		Toolbar:  s.panel.Store().Snapshot(),
		Armed:    s.panel.Machine().Armed(),
	}
}

func (s *Server) handleGetSurface(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SurfaceResponse, error) {
	if refresh, _ := args["refresh"].(bool); refresh {
		if err := s.panel.Refresh(ctx); err != nil {
			return SurfaceResponse{}, err
		}
	}
	return s.surface(), nil
}

func (s *Server) handleSetTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tool, err := domain.ParseTool(request.GetString("tool", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.panel.Store().SetActiveTool(tool)
	return jsonResult(s.panel.Store().Snapshot())
}

func (s *Server) handleSetNodeType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeType, err := domain.ParseNodeType(request.GetString("node_type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.panel.Store().SetSelectedNodeType(nodeType)
	return jsonResult(s.panel.Store().Snapshot())
}

func (s *Server) handleSelectTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	store := s.panel.Store()
	for _, tpl := range store.Snapshot().AvailableNodes {
		if strings.EqualFold(tpl.Name, name) {
			store.SetSelectedSpecificNode(&tpl)
			return jsonResult(store.Snapshot())
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("unknown template %q; load the catalog or check get_surface", name)), nil
}

func tapResponse(out interaction.Outcome, err error) (TapResponse, error) {
	resp := TapResponse{Outcome: out}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

func (s *Server) handleTapBackground(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TapResponse, error) {
	x, _ := args["x"].(float64)
	y, _ := args["y"].(float64)
	return tapResponse(s.panel.Tap(ctx, domain.BackgroundTap(domain.Position{X: x, Y: y})))
}

func (s *Server) handleTapNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TapResponse, error) {
	id, _ := args["node_id"].(string)
	out, err := s.panel.TapNode(ctx, id)
	if errors.Is(err, domain.ErrNodeNotFound) {
		return TapResponse{}, err
	}
	return tapResponse(out, err)
}

func (s *Server) handleCrashNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.panel.CrashNode(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("node %s crashed", id)), nil
}

func (s *Server) handleSetPDR(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pdr, err := request.RequireFloat("pdr")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.panel.SetPacketDropRate(ctx, id, pdr); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("drone %s packet drop rate set to %.2f", id, pdr)), nil
}

func (s *Server) handleNodeDetail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.panel.NodeDetail(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(detail)
}

func (s *Server) handleGetLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(request.GetFloat("limit", float64(s.logsLimit)))
	entries, err := s.panel.Logs(ctx, request.GetString("level", ""), limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entries)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("meshpanel://surface", "Current Topology",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.panel.Surface().Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to encode topology: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: "meshpanel://surface", MIMEType: "application/json", Text: string(data)},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("meshpanel://surface.mmd", "Topology as Mermaid",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "meshpanel://surface.mmd",
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(s.panel.Surface().Snapshot()),
			},
		}, nil
	})
}

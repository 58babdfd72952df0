package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/meshpanel"
	"github.com/aretw0/meshpanel/pkg/adapters/memory"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/interaction"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *meshpanel.Panel) {
	t.Helper()
	backend := memory.NewBackend(
		[]domain.GraphNode{
			{ID: "3", Label: "Drone 3", Type: domain.NodeTypeDrone},
			{ID: "5", Label: "Drone 5", Type: domain.NodeTypeDrone},
		},
		[]domain.GraphEdge{domain.NewEdge("3", "5")},
		memory.WithFirstID(42),
	)
	panel := meshpanel.New(backend)
	t.Cleanup(panel.Close)
	require.NoError(t, panel.Refresh(context.Background()))
	require.NoError(t, panel.LoadCatalog(context.Background()))
	return NewServer(panel), panel
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestServer_GetSurface(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.handleGetSurface(context.Background(), call(nil), map[string]interface{}{"refresh": true})
	require.NoError(t, err)
	assert.Len(t, resp.Topology.Nodes, 2)
	assert.Len(t, resp.Topology.Edges, 1)
	assert.Equal(t, domain.ToolCursor, resp.Toolbar.ActiveTool)
	assert.Empty(t, resp.Armed)
}

func TestServer_PlaceNodeThroughTools(t *testing.T) {
	s, panel := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleSetTool(ctx, call(map[string]any{"tool": "add"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleSetNodeType(ctx, call(map[string]any{"node_type": "drone"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleSelectTemplate(ctx, call(map[string]any{"name": "rust"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.NotNil(t, panel.Store().Snapshot().SelectedSpecificNode)

	tap, err := s.handleTapBackground(ctx, call(nil), map[string]interface{}{"x": 10.0, "y": 20.0})
	require.NoError(t, err)
	assert.Equal(t, interaction.OutcomeNodeCreated, tap.Outcome)
	assert.Empty(t, tap.Error)

	node, ok := panel.Surface().Node("42")
	require.True(t, ok)
	assert.Equal(t, domain.Position{X: 10, Y: 20}, node.Position)
}

func TestServer_InvalidArguments(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
	}{
		{"unknown tool", s.handleSetTool, map[string]any{"tool": "lasso"}},
		{"unknown node type", s.handleSetNodeType, map[string]any{"node_type": "satellite"}},
		{"unknown template", s.handleSelectTemplate, map[string]any{"name": "Nope"}},
		{"crash without id", s.handleCrashNode, map[string]any{}},
		{"pdr out of range", s.handleSetPDR, map[string]any{"node_id": "3", "pdr": 1.5}},
		{"detail of missing node", s.handleNodeDetail, map[string]any{"node_id": "99"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.handler(ctx, call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}

func TestServer_TapNodeLinksEdge(t *testing.T) {
	s, panel := newTestServer(t)
	ctx := context.Background()

	panel.Store().SetActiveTool(domain.ToolAdd)
	panel.Store().SetSelectedNodeType(domain.NodeTypeEdge)

	tap, err := s.handleTapNode(ctx, call(nil), map[string]interface{}{"node_id": "3"})
	require.NoError(t, err)
	assert.Equal(t, interaction.OutcomeArmed, tap.Outcome)

	surface, err := s.handleGetSurface(ctx, call(nil), map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "3", surface.Armed)

	_, err = s.handleTapNode(ctx, call(nil), map[string]interface{}{"node_id": "404"})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestServer_CrashAndDetail(t *testing.T) {
	s, panel := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleSetPDR(ctx, call(map[string]any{"node_id": "5", "pdr": 0.25}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	res, err = s.handleNodeDetail(ctx, call(map[string]any{"node_id": "5"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var detail domain.NodeDetail
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &detail))
	assert.InDelta(t, 0.25, detail.PacketDropRate, 1e-9)

	res, err = s.handleCrashNode(ctx, call(map[string]any{"node_id": "3"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	_, ok := panel.Surface().Node("3")
	assert.False(t, ok)
	assert.Empty(t, panel.Surface().Edges())
}

func TestServer_GetLogs(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleCrashNode(ctx, call(map[string]any{"node_id": "3"}))
	require.NoError(t, err)

	res, err := s.handleGetLogs(ctx, call(map[string]any{"limit": 1.0}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var entries []domain.LogEntry
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &entries))
	assert.Len(t, entries, 1)
}

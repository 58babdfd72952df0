package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/meshpanel"
	"github.com/aretw0/meshpanel/pkg/adapters/memory"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPanel(t *testing.T) (*meshpanel.Panel, *memory.Backend) {
	t.Helper()
	backend := memory.NewBackend(
		[]domain.GraphNode{
			{ID: "3", Label: "Drone 3", Type: domain.NodeTypeDrone},
			{ID: "5", Label: "Drone 5", Type: domain.NodeTypeDrone},
			{ID: "7", Label: "Client 7", Type: domain.NodeTypeClient},
			{ID: "9", Label: "Server 9", Type: domain.NodeTypeServer},
		},
		[]domain.GraphEdge{domain.NewEdge("3", "5")},
		memory.WithFirstID(42),
		memory.WithConfigurations(
			domain.Configuration{ID: "star", Name: "Star"},
			domain.Configuration{ID: "line", Name: "Line"},
		),
	)
	panel := meshpanel.New(backend)
	t.Cleanup(panel.Close)
	require.NoError(t, panel.Refresh(context.Background()))
	require.NoError(t, panel.LoadCatalog(context.Background()))
	return panel, backend
}

func runScript(t *testing.T, panel *meshpanel.Panel, script string) string {
	t.Helper()
	var out bytes.Buffer
	repl := NewREPL(panel, strings.NewReader(script), &out, WithInteractive(false))
	require.NoError(t, repl.Run(context.Background()))
	return out.String()
}

func TestREPL_PlaceAndLink(t *testing.T) {
	panel, _ := newTestPanel(t)

	out := runScript(t, panel, `
tool add
type drone
template rust
tap 120 80
type edge
node 42
node 3
quit
node 5
`)

	assert.Contains(t, out, "node_created")
	assert.Contains(t, out, "armed")
	assert.Contains(t, out, "edge_created")

	_, ok := panel.Surface().Node("42")
	assert.True(t, ok)
	assert.Len(t, panel.Surface().Edges(), 2)
	// quit stops before the trailing command
	assert.Empty(t, panel.Machine().Armed())
}

func TestREPL_SendMessage(t *testing.T) {
	panel, backend := newTestPanel(t)

	out := runScript(t, panel, "msg send-message id=12 message=hi\nnode 7\nnode 9\n")
	assert.Contains(t, out, "message_sent")

	sent := backend.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "send-message", sent[0].Type)
	assert.Equal(t, int64(12), sent[0].Payload["id"])
	assert.Empty(t, panel.Store().Snapshot().SelectedMessageType)
}

func TestREPL_Errors(t *testing.T) {
	panel, _ := newTestPanel(t)

	tests := []struct {
		name string
		line string
		want string
	}{
		{"unknown command", "fly away", "unknown command"},
		{"bad tool", "tool lasso", "error:"},
		{"bad template", "template Nope", "unknown template"},
		{"bad tap", "tap x 1", "invalid x"},
		{"pdr out of range", "pdr 3 2", "error:"},
		{"bad payload", "msg join id", "key=value"},
		{"missing node", "node 404", "error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runScript(t, panel, tt.line+"\n")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestREPL_Inspection(t *testing.T) {
	panel, _ := newTestPanel(t)

	out := runScript(t, panel, `
# comments and blank lines are skipped
pdr 3 0.5
detail 3
crash 5
logs
graph
config apply line
config list
catalog
`)

	assert.Contains(t, out, "Drone 3")
	assert.Contains(t, out, "Node 5 crashed.")
	assert.Contains(t, out, "graph LR")
	assert.Contains(t, out, "* line")
	assert.Contains(t, out, "Rust")
	assert.Contains(t, out, "send-message")

	_, ok := panel.Surface().Node("5")
	assert.False(t, ok)
}

func TestREPL_StopsOnCancel(t *testing.T) {
	panel, _ := newTestPanel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	repl := NewREPL(panel, blockingReader{}, &out, WithInteractive(false))
	assert.ErrorIs(t, repl.Run(ctx), context.Canceled)
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) { select {} }

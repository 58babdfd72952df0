package meshpanel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/meshpanel"
	"github.com/aretw0/meshpanel/pkg/adapters/memory"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/interaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPanel(t *testing.T, opts ...meshpanel.Option) (*meshpanel.Panel, *memory.Backend) {
	t.Helper()
	backend := memory.NewBackend(
		[]domain.GraphNode{
			{ID: "3", Label: "Drone 3", Type: domain.NodeTypeDrone},
			{ID: "5", Label: "Drone 5", Type: domain.NodeTypeDrone},
			{ID: "20", Label: "Server 20", Type: domain.NodeTypeServer},
		},
		[]domain.GraphEdge{domain.NewEdge("3", "20")},
		memory.WithFirstID(42),
		memory.WithConfigurations(domain.Configuration{ID: "butterfly", Name: "Butterfly"}),
	)
	panel := meshpanel.New(backend, opts...)
	t.Cleanup(panel.Close)
	require.NoError(t, panel.Refresh(context.Background()))
	return panel, backend
}

func TestPanel_PlaceDroneEndToEnd(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewLedger()
	panel, _ := newPanel(t, meshpanel.WithLedger(ledger))

	require.NoError(t, panel.LoadCatalog(ctx))
	catalog := panel.Store().Snapshot().AvailableNodes
	require.NotEmpty(t, catalog)

	store := panel.Store()
	store.SetActiveTool(domain.ToolAdd)
	store.SetSelectedNodeType(domain.NodeTypeDrone)
	store.SetSelectedSpecificNode(&catalog[0])

	// Far from the circle layout so the tap lands on the background.
	out, err := panel.TapAt(ctx, domain.Position{X: 1000, Y: 1000})
	require.NoError(t, err)
	assert.Equal(t, interaction.OutcomeNodeCreated, out)

	node, ok := panel.Surface().Node("42")
	require.True(t, ok)
	assert.Equal(t, "Drone 42", node.Label)

	created, err := panel.CreatedNodes(ctx)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, 42, created[0].ID)

	// The backend agrees after a refresh.
	require.NoError(t, panel.Refresh(ctx))
	_, ok = panel.Surface().Node("42")
	assert.True(t, ok)
}

func TestPanel_LinkEdgeEndToEnd(t *testing.T) {
	ctx := context.Background()
	panel, _ := newPanel(t)

	panel.Store().SetActiveTool(domain.ToolAdd)
	panel.Store().SetSelectedNodeType(domain.NodeTypeEdge)

	out, err := panel.TapNode(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, interaction.OutcomeArmed, out)

	out, err = panel.TapNode(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, interaction.OutcomeEdgeCreated, out)
	assert.Empty(t, panel.Surface().Highlighted())
	assert.Len(t, panel.Surface().Edges(), 2)

	_, err = panel.TapNode(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestPanel_CrashNodeCascades(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewLedger()
	panel, _ := newPanel(t, meshpanel.WithLedger(ledger))
	require.NoError(t, ledger.Record(ctx, domain.CreatedNode{ID: 3, Type: domain.NodeTypeDrone}))

	require.NoError(t, panel.CrashNode(ctx, "3"))

	_, ok := panel.Surface().Node("3")
	assert.False(t, ok)
	assert.Empty(t, panel.Surface().Edges())
	_, err := ledger.Get(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrCreatedNodeNotFound)
}

func TestPanel_CrashFailureKeepsSurface(t *testing.T) {
	ctx := context.Background()
	panel, backend := newPanel(t)
	backend.FailNext("delete_node", errors.New("controller busy"))

	err := panel.CrashNode(ctx, "3")
	assert.ErrorIs(t, err, domain.ErrBackend)
	_, ok := panel.Surface().Node("3")
	assert.True(t, ok)
}

func TestPanel_RemoveEdge(t *testing.T) {
	ctx := context.Background()
	panel, _ := newPanel(t)

	require.NoError(t, panel.RemoveEdge(ctx, "20", "3"))
	assert.Empty(t, panel.Surface().Edges())
}

func TestPanel_SetPacketDropRate(t *testing.T) {
	ctx := context.Background()
	panel, _ := newPanel(t)

	for _, bad := range []float64{-0.1, 1.01} {
		assert.ErrorIs(t, panel.SetPacketDropRate(ctx, "3", bad), domain.ErrInvalidPDR)
	}
	require.NoError(t, panel.SetPacketDropRate(ctx, "3", 0.4))

	detail, err := panel.NodeDetail(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, 0.4, detail.PacketDropRate)
}

func TestPanel_LogsNewestFirst(t *testing.T) {
	ctx := context.Background()
	panel, _ := newPanel(t)

	require.NoError(t, panel.SetPacketDropRate(ctx, "3", 0.1))
	require.NoError(t, panel.SetPacketDropRate(ctx, "5", 0.2))
	require.NoError(t, panel.SetPacketDropRate(ctx, "3", 0.3))

	logs, err := panel.Logs(ctx, "info", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Contains(t, logs[0].Message, "0.30")
	assert.Contains(t, logs[1].Message, "0.20")
}

func TestPanel_RefreshFailureKeepsSurface(t *testing.T) {
	ctx := context.Background()
	panel, backend := newPanel(t)
	backend.FailNext("topology", errors.New("down"))

	assert.Error(t, panel.Refresh(ctx))
	assert.Len(t, panel.Surface().Nodes(), 3)
}

func TestPanel_ApplyConfigurationRefreshes(t *testing.T) {
	ctx := context.Background()
	panel, backend := newPanel(t)

	_, err := backend.CreateNode(ctx, domain.NodeTypeClient, domain.SubTypeChat)
	require.NoError(t, err)
	require.NoError(t, panel.ApplyConfiguration(ctx, "butterfly"))
	assert.Len(t, panel.Surface().Nodes(), 4)

	configs, err := panel.Configurations(ctx)
	require.NoError(t, err)
	assert.True(t, configs[0].Active)
}

func TestPanel_ValidateDraft(t *testing.T) {
	panel, _ := newPanel(t)

	draft, err := panel.ValidateDraft(domain.MessageDraft{Type: "create", Payload: map[string]any{"name": "ops"}})
	require.NoError(t, err)
	assert.Equal(t, false, draft.Payload["public"])

	_, err = panel.ValidateDraft(domain.MessageDraft{Type: "join"})
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

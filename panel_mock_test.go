package meshpanel_test

import (
	"context"
	"testing"

	"github.com/aretw0/meshpanel"
	"github.com/aretw0/meshpanel/pkg/adapters/memory"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGateway records backend calls.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateNode(ctx context.Context, nodeType domain.NodeType, subType domain.SubType) (domain.CreateNodeResult, error) {
	args := m.Called(nodeType, subType)
	return args.Get(0).(domain.CreateNodeResult), args.Error(1)
}

func (m *MockGateway) CreateEdge(ctx context.Context, fromID, toID string) (domain.EdgeResult, error) {
	args := m.Called(fromID, toID)
	return args.Get(0).(domain.EdgeResult), args.Error(1)
}

func (m *MockGateway) SendMessage(ctx context.Context, messageType, fromID, toID string, payload map[string]any) (any, error) {
	args := m.Called(messageType, fromID, toID, payload)
	return args.Get(0), args.Error(1)
}

func (m *MockGateway) Topology(ctx context.Context) (domain.Topology, error) {
	args := m.Called()
	return args.Get(0).(domain.Topology), args.Error(1)
}

func (m *MockGateway) Catalog(ctx context.Context) ([]domain.Template, error) {
	args := m.Called()
	return args.Get(0).([]domain.Template), args.Error(1)
}

func (m *MockGateway) DeleteNode(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockGateway) DeleteEdge(ctx context.Context, fromID, toID string) error {
	return m.Called(fromID, toID).Error(0)
}

func (m *MockGateway) SetPacketDropRate(ctx context.Context, id string, pdr float64) error {
	return m.Called(id, pdr).Error(0)
}

func (m *MockGateway) NodeDetail(ctx context.Context, id string) (domain.NodeDetail, error) {
	args := m.Called(id)
	return args.Get(0).(domain.NodeDetail), args.Error(1)
}

func (m *MockGateway) Logs(ctx context.Context, level string) ([]domain.LogEntry, error) {
	args := m.Called(level)
	return args.Get(0).([]domain.LogEntry), args.Error(1)
}

func (m *MockGateway) Configurations(ctx context.Context) ([]domain.Configuration, error) {
	args := m.Called()
	return args.Get(0).([]domain.Configuration), args.Error(1)
}

func (m *MockGateway) ApplyConfiguration(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func TestPanel_InvalidPDRNeverReachesBackend(t *testing.T) {
	gw := new(MockGateway)
	panel := meshpanel.New(gw)
	defer panel.Close()

	for _, pdr := range []float64{-0.1, 1.01} {
		err := panel.SetPacketDropRate(context.Background(), "3", pdr)
		assert.ErrorIs(t, err, domain.ErrInvalidPDR)
	}
	gw.AssertNotCalled(t, "SetPacketDropRate", mock.Anything, mock.Anything)
}

func TestPanel_CrashDropsLedgerEntry(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	gw.On("Topology").Return(domain.Topology{
		Nodes: []domain.GraphNode{{ID: "42", Label: "Drone 42", Type: domain.NodeTypeDrone}},
	}, nil)
	gw.On("DeleteNode", "42").Return(nil).Once()

	ledger := memory.NewLedger()
	require.NoError(t, ledger.Record(ctx, domain.CreatedNode{ID: 42, Name: "Drone42", Type: domain.NodeTypeDrone}))

	panel := meshpanel.New(gw, meshpanel.WithLedger(ledger))
	defer panel.Close()
	require.NoError(t, panel.Refresh(ctx))

	require.NoError(t, panel.CrashNode(ctx, "42"))

	created, err := panel.CreatedNodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, panel.Surface().Nodes())
	gw.AssertExpectations(t)
}

func TestPanel_LogsPassesLevelAndLimits(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Logs", "warn").Return([]domain.LogEntry{
		{Level: "warn", Message: "first"},
		{Level: "warn", Message: "second"},
		{Level: "warn", Message: "third"},
	}, nil)

	panel := meshpanel.New(gw)
	defer panel.Close()

	entries, err := panel.Logs(context.Background(), "warn", 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.LogEntry{
		{Level: "warn", Message: "third"},
		{Level: "warn", Message: "second"},
	}, entries)
	gw.AssertExpectations(t)
}

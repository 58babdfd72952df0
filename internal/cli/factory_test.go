package cli

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/meshpanel/internal/config"
	"github.com/aretw0/meshpanel/internal/logging"
	"github.com/aretw0/meshpanel/pkg/adapters/file"
	"github.com/aretw0/meshpanel/pkg/adapters/memory"
	"github.com/aretw0/meshpanel/pkg/adapters/redis"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedger(t *testing.T) {
	mr := miniredis.RunT(t)

	t.Run("memory", func(t *testing.T) {
		l, closeFn, err := newLedger(config.LedgerConfig{Backend: config.LedgerMemory})
		require.NoError(t, err)
		assert.IsType(t, &memory.Ledger{}, l)
		assert.NoError(t, closeFn())
	})

	t.Run("file", func(t *testing.T) {
		l, _, err := newLedger(config.LedgerConfig{Backend: config.LedgerFile, Path: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &file.Ledger{}, l)
	})

	t.Run("redis", func(t *testing.T) {
		l, closeFn, err := newLedger(config.LedgerConfig{Backend: config.LedgerRedis, RedisAddr: mr.Addr(), Prefix: "t:"})
		require.NoError(t, err)
		assert.IsType(t, &redis.Ledger{}, l)

		require.NoError(t, l.Record(context.Background(), domain.CreatedNode{ID: 1, Name: "Drone1", Type: domain.NodeTypeDrone}))
		assert.True(t, mr.Exists("t:1"))
		assert.NoError(t, closeFn())
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := newLedger(config.LedgerConfig{Backend: "etcd"})
		assert.Error(t, err)
	})
}

func TestNewPanel_WithGateway(t *testing.T) {
	backend := memory.NewBackend([]domain.GraphNode{{ID: "1", Label: "Drone 1", Type: domain.NodeTypeDrone}}, nil)
	metrics := observability.NewMetrics()

	panel, cleanup, err := NewPanel(context.Background(), PanelOptions{
		Config:  config.Default(),
		Logger:  logging.NewNop(),
		Gateway: backend,
		Metrics: metrics,
	})
	require.NoError(t, err)
	defer cleanup()

	assert.Len(t, panel.Surface().Nodes(), 1)
	assert.NotEmpty(t, panel.Store().Snapshot().AvailableNodes)
}

func TestNewPanel_SurvivesUnreachableBackend(t *testing.T) {
	backend := memory.NewBackend(nil, nil)
	backend.FailNext("topology", assert.AnError)

	panel, cleanup, err := NewPanel(context.Background(), PanelOptions{Logger: logging.NewNop(), Gateway: backend})
	require.NoError(t, err)
	defer cleanup()
	assert.Empty(t, panel.Surface().Nodes())
}

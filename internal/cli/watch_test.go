package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aretw0/meshpanel/internal/logging"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffTopology(t *testing.T) {
	prev := domain.Topology{
		Nodes: []domain.GraphNode{{ID: "1", Type: domain.NodeTypeDrone}, {ID: "2", Type: domain.NodeTypeClient}},
		Edges: []domain.GraphEdge{domain.NewEdge("1", "2")},
	}
	next := domain.Topology{
		Nodes: []domain.GraphNode{{ID: "1", Type: domain.NodeTypeDrone}, {ID: "3", Type: domain.NodeTypeServer}},
		Edges: []domain.GraphEdge{domain.NewEdge("1", "3")},
	}

	assert.Equal(t, []string{
		"+ node 3 (server)",
		"- node 2 (client)",
		"+ edge 1 -- 3",
		"- edge 1 -- 2",
	}, diffTopology(prev, next))
	assert.Empty(t, diffTopology(prev, prev))
}

func TestWatch_ReportsRemoteChanges(t *testing.T) {
	panel, backend := newTestPanel(t)
	require.NoError(t, backend.DeleteNode(context.Background(), "5"))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := Watch(ctx, panel, &out, WatchOptions{Interval: 10 * time.Millisecond, Logger: logging.NewNop()})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Contains(t, out.String(), "Watching 4 nodes, 1 edges.")
	assert.Contains(t, out.String(), "- node 5 (drone)")
	assert.Contains(t, out.String(), "- edge 3 -- 5")
}

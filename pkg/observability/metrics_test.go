package observability_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics()
	hooks := m.Hooks()

	hooks.OnNodeCreated(ctx, &domain.NodeEvent{Node: domain.GraphNode{ID: "42", Type: domain.NodeTypeDrone}})
	hooks.OnNodeCreated(ctx, &domain.NodeEvent{Node: domain.GraphNode{ID: "43", Type: domain.NodeTypeDrone}})
	hooks.OnEdgeCreated(ctx, &domain.EdgeEvent{Edge: domain.NewEdge("3", "5")})
	hooks.OnMessageSent(ctx, &domain.MessageEvent{MessageType: "join"})
	hooks.OnGestureFailed(ctx, &domain.GestureEvent{Gesture: "link_edge", Err: errors.New("boom")})
	hooks.OnBackendCall(ctx, &domain.CallEvent{Operation: "create_edge", Elapsed: 20 * time.Millisecond, IsError: true})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodesCreated.WithLabelValues("drone")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EdgesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("join")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GestureFailures.WithLabelValues("link_edge")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BackendDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.EdgesCreated.Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "meshpanel_edges_created_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestLoggingHooks_MergeWithMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	m := observability.NewMetrics()

	hooks := observability.LoggingHooks(logger).Merge(m.Hooks())
	hooks.OnEdgeCreated(context.Background(), &domain.EdgeEvent{Edge: domain.NewEdge("1", "2")})

	assert.Contains(t, buf.String(), `"msg":"edge_created"`)
	assert.Contains(t, buf.String(), `"edge_id":"edge-1-2"`)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EdgesCreated))
}

package rest_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/meshpanel/pkg/adapters/rest"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

func newBackend(t *testing.T, register func(r chi.Router)) (*rest.Client, func() []captured) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []captured
	)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			c := captured{Method: req.Method, Path: req.URL.Path, Query: req.URL.RawQuery}
			if data, _ := io.ReadAll(req.Body); len(data) > 0 {
				assert.NoError(t, json.Unmarshal(data, &c.Body))
				assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			}
			mu.Lock()
			calls = append(calls, c)
			mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api", register)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return rest.New(srv.URL + "/"), func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), calls...)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://sim:3000/api", rest.BaseURL("http://sim:3000"))
	assert.Equal(t, "http://sim:3000/api", rest.BaseURL("http://sim:3000/"))
	assert.Equal(t, "/api", rest.BaseURL(""))
}

func TestClient_TopologyShapes(t *testing.T) {
	client, _ := newBackend(t, func(r chi.Router) {
		r.Get("/topology", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{
				"nodes": [
					{"data": {"id": "drone_1", "label": "Drone 1", "type": "drone"}, "position": {"x": 10, "y": 20}},
					{"id": 7, "type": "client", "subtype": "web"}
				],
				"edges": [
					{"data": {"id": "edge_1_7", "source": "drone_1", "target": "7"}},
					{"source": 7, "target": 9}
				]
			}`)
		})
	})

	topo, err := client.Topology(context.Background())
	require.NoError(t, err)

	require.Len(t, topo.Nodes, 2)
	assert.Equal(t, domain.GraphNode{ID: "drone_1", Label: "Drone 1", Type: domain.NodeTypeDrone, Position: domain.Position{X: 10, Y: 20}}, topo.Nodes[0])
	assert.Equal(t, "7", topo.Nodes[1].ID)
	assert.Equal(t, "Client 7", topo.Nodes[1].Label, "missing labels are derived from type and id")
	assert.Equal(t, domain.SubTypeWeb, topo.Nodes[1].SubType)

	require.Len(t, topo.Edges, 2)
	assert.Equal(t, domain.GraphEdge{ID: "edge_1_7", Source: "drone_1", Target: "7"}, topo.Edges[0])
	assert.Equal(t, domain.NewEdge("7", "9"), topo.Edges[1])
}

func TestClient_Catalog(t *testing.T) {
	client, _ := newBackend(t, func(r chi.Router) {
		r.Get("/nodes", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"nodes": []map[string]string{
				{"name": "Rust", "type": "drone", "image": "rust.png"},
			}})
		})
	})

	templates, err := client.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Template{{Name: "Rust", Type: domain.NodeTypeDrone, Image: "rust.png"}}, templates)
}

func TestClient_CreateNode(t *testing.T) {
	client, calls := newBackend(t, func(r chi.Router) {
		r.Post("/nodes", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"id": 42, "message": "spawned"})
		})
	})

	res, err := client.CreateNode(context.Background(), domain.NodeTypeDrone, "rust")
	require.NoError(t, err)
	assert.Equal(t, domain.CreateNodeResult{ID: 42, Message: "spawned"}, res)

	require.Len(t, calls(), 1)
	assert.Equal(t, map[string]any{"node_type": "drone", "sub_type": "rust"}, calls()[0].Body)
}

func TestClient_CreateEdgeSendsIntegers(t *testing.T) {
	client, calls := newBackend(t, func(r chi.Router) {
		r.Post("/edges", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{})
		})
	})

	res, err := client.CreateEdge(context.Background(), "3", "5")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Edge created from 3 to 5", res.Message)

	// JSON numbers decode as float64.
	assert.Equal(t, map[string]any{"from_id": float64(3), "to_id": float64(5)}, calls()[0].Body)
}

func TestClient_SendMessage(t *testing.T) {
	client, calls := newBackend(t, func(r chi.Router) {
		r.Post("/messages/{type}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"type": chi.URLParam(r, "type")})
		})
	})
	ctx := context.Background()

	out, err := client.SendMessage(ctx, "join", "7", "10", map[string]any{"id": 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "join"}, out)

	call := calls()[0]
	assert.Equal(t, "/api/messages/join", call.Path)
	assert.Equal(t, float64(7), call.Body["from_id"])
	assert.Equal(t, float64(10), call.Body["to_id"])
	assert.Equal(t, float64(3), call.Body["id"])

	_, err = client.SendMessage(ctx, "teleport", "7", "10", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownMessageType)
	assert.Len(t, calls(), 1, "unknown types never reach the backend")
}

func TestClient_SidePanelEndpoints(t *testing.T) {
	client, calls := newBackend(t, func(r chi.Router) {
		r.Delete("/node/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
		r.Delete("/edges", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		r.Patch("/drone/{id}/pdr", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		r.Get("/node/{id}", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"label":"Drone 4","type":"drone","subtype":"rust","neighbours":[{"id":"5","label":"Drone 5","type":"drone"}],"packet_drop_rate":0.1,"pkg_sent":12,"pkg_drop":1}`)
		})
		r.Get("/logs", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, []domain.LogEntry{{Level: "warn", Message: "drone 4 dropped a packet"}})
		})
		r.Get("/configurations", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, []domain.Configuration{{ID: "star", Name: "Star", Active: true}})
		})
		r.Post("/configurations", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	})
	ctx := context.Background()

	require.NoError(t, client.DeleteNode(ctx, "4"))
	require.NoError(t, client.DeleteEdge(ctx, "4", "5"))
	require.NoError(t, client.SetPacketDropRate(ctx, "4", 0.3))

	detail, err := client.NodeDetail(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, "4", detail.ID)
	assert.Equal(t, 12, detail.PacketsSent)
	assert.Equal(t, 1, detail.PacketsDropped)
	assert.Len(t, detail.Neighbours, 1)

	logs, err := client.Logs(ctx, "warn")
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	configs, err := client.Configurations(ctx)
	require.NoError(t, err)
	assert.True(t, configs[0].Active)
	require.NoError(t, client.ApplyConfiguration(ctx, "star"))

	got := calls()
	require.Len(t, got, 7)
	assert.Equal(t, "/api/node/4", got[0].Path)
	assert.Equal(t, http.MethodDelete, got[1].Method)
	assert.Equal(t, map[string]any{"from_id": float64(4), "to_id": float64(5)}, got[1].Body)
	assert.Equal(t, map[string]any{"pdr": 0.3}, got[2].Body)
	assert.Equal(t, "level=warn", got[4].Query)
	assert.Equal(t, map[string]any{"id": "star"}, got[6].Body)
}

func TestClient_InvalidPDRNeverSent(t *testing.T) {
	client, calls := newBackend(t, func(r chi.Router) {})

	assert.ErrorIs(t, client.SetPacketDropRate(context.Background(), "4", 1.5), domain.ErrInvalidPDR)
	assert.Empty(t, calls())
}

func TestClient_StatusError(t *testing.T) {
	client, _ := newBackend(t, func(r chi.Router) {
		r.Post("/edges", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nodes already connected", http.StatusConflict)
		})
	})

	_, err := client.CreateEdge(context.Background(), "1", "2")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackend)

	var statusErr *rest.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.Code)
	assert.Equal(t, "nodes already connected", statusErr.Body)
}

func TestClient_TransportErrorWrapsBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := rest.New(url).Topology(context.Background())
	assert.ErrorIs(t, err, domain.ErrBackend)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := rest.New(srv.URL, rest.WithTimeout(20*time.Millisecond))
	_, err := client.Catalog(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

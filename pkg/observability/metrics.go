package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the panel's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	NodesSelected   prometheus.Counter
	NodesCreated    *prometheus.CounterVec
	EdgesCreated    prometheus.Counter
	MessagesSent    *prometheus.CounterVec
	GestureFailures *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a dedicated registry, alongside the Go runtime
// and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		NodesSelected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshpanel_nodes_selected_total",
			Help: "Total number of node selections in cursor mode",
		}),
		NodesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshpanel_nodes_created_total",
			Help: "Total number of nodes placed through the panel",
		}, []string{"type"}),
		EdgesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshpanel_edges_created_total",
			Help: "Total number of edges linked through the panel",
		}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshpanel_messages_sent_total",
			Help: "Total number of protocol test messages sent",
		}, []string{"message_type"}),
		GestureFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshpanel_gesture_failures_total",
			Help: "Total number of gestures that failed at the backend",
		}, []string{"gesture"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meshpanel_backend_call_duration_seconds",
			Help:    "Duration of backend calls made by gestures",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
	}
	m.registry.MustRegister(
		m.NodesSelected,
		m.NodesCreated,
		m.EdgesCreated,
		m.MessagesSent,
		m.GestureFailures,
		m.BackendDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeSelected: func(_ context.Context, _ *domain.NodeEvent) {
			m.NodesSelected.Inc()
		},
		OnNodeCreated: func(_ context.Context, e *domain.NodeEvent) {
			m.NodesCreated.WithLabelValues(string(e.Node.Type)).Inc()
		},
		OnEdgeCreated: func(_ context.Context, _ *domain.EdgeEvent) {
			m.EdgesCreated.Inc()
		},
		OnMessageSent: func(_ context.Context, e *domain.MessageEvent) {
			m.MessagesSent.WithLabelValues(e.MessageType).Inc()
		},
		OnGestureFailed: func(_ context.Context, e *domain.GestureEvent) {
			m.GestureFailures.WithLabelValues(e.Gesture).Inc()
		},
		OnBackendCall: func(_ context.Context, e *domain.CallEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.BackendDuration.WithLabelValues(e.Operation, outcome).Observe(e.Elapsed.Seconds())
		},
	}
}

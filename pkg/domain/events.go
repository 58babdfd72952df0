package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeSelected  EventType = "node_selected"
	EventNodeCreated   EventType = "node_created"
	EventEdgeCreated   EventType = "edge_created"
	EventMessageSent   EventType = "message_sent"
	EventGestureFailed EventType = "gesture_failed"
	EventBackendCall   EventType = "backend_call"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NodeEvent reports a selected or created node.
type NodeEvent struct {
	EventBase
	Node GraphNode `json:"node"`
}

// EdgeEvent reports a created edge.
type EdgeEvent struct {
	EventBase
	Edge GraphEdge `json:"edge"`
}

// MessageEvent reports a sent protocol message.
type MessageEvent struct {
	EventBase
	MessageType string `json:"message_type"`
	FromID      string `json:"from_id"`
	ToID        string `json:"to_id"`
	Result      any    `json:"result,omitempty"`
}

// GestureEvent reports a failed gesture.
type GestureEvent struct {
	EventBase
	Gesture string        `json:"gesture"`
	Err     error         `json:"-"`
	Elapsed time.Duration `json:"elapsed"`
}

// CallEvent reports the outcome of one backend call.
type CallEvent struct {
	EventBase
	Operation string        `json:"operation"`
	Elapsed   time.Duration `json:"elapsed"`
	IsError   bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for panel observability.
type LifecycleHooks struct {
	OnNodeSelected  func(context.Context, *NodeEvent)
	OnNodeCreated   func(context.Context, *NodeEvent)
	OnEdgeCreated   func(context.Context, *EdgeEvent)
	OnMessageSent   func(context.Context, *MessageEvent)
	OnGestureFailed func(context.Context, *GestureEvent)
	OnBackendCall   func(context.Context, *CallEvent)
}

// Merge returns hooks that call h first and then other, for every callback set in either.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeSelected:  chain(h.OnNodeSelected, other.OnNodeSelected),
		OnNodeCreated:   chain(h.OnNodeCreated, other.OnNodeCreated),
		OnEdgeCreated:   chain(h.OnEdgeCreated, other.OnEdgeCreated),
		OnMessageSent:   chain(h.OnMessageSent, other.OnMessageSent),
		OnGestureFailed: chain(h.OnGestureFailed, other.OnGestureFailed),
		OnBackendCall:   chain(h.OnBackendCall, other.OnBackendCall),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

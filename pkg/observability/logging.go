package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/meshpanel/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that emit one structured record per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeSelected: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_selected", "node_id", e.Node.ID, "type", e.Node.Type)
		},
		OnNodeCreated: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_created", "node_id", e.Node.ID, "type", e.Node.Type, "subtype", e.Node.SubType)
		},
		OnEdgeCreated: func(ctx context.Context, e *domain.EdgeEvent) {
			logger.InfoContext(ctx, "edge_created", "edge_id", e.Edge.ID)
		},
		OnMessageSent: func(ctx context.Context, e *domain.MessageEvent) {
			logger.InfoContext(ctx, "message_sent", "message_type", e.MessageType, "from", e.FromID, "to", e.ToID)
		},
		OnGestureFailed: func(ctx context.Context, e *domain.GestureEvent) {
			logger.WarnContext(ctx, "gesture_failed", "gesture", e.Gesture, "err", e.Err, "elapsed", e.Elapsed)
		},
		OnBackendCall: func(ctx context.Context, e *domain.CallEvent) {
			logger.DebugContext(ctx, "backend_call", "operation", e.Operation, "elapsed", e.Elapsed, "is_error", e.IsError)
		},
	}
}

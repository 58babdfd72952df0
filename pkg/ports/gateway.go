package ports

import (
	"context"

	"github.com/aretw0/meshpanel/pkg/domain"
)

// GestureGateway is the subset of the backend a completed gesture calls.
type GestureGateway interface {
	// CreateNode asks the backend to spawn a node. The returned id is authoritative.
	CreateNode(ctx context.Context, nodeType domain.NodeType, subType domain.SubType) (domain.CreateNodeResult, error)

	// CreateEdge links two existing nodes.
	CreateEdge(ctx context.Context, fromID, toID string) (domain.EdgeResult, error)

	// SendMessage posts a protocol test message from one node to another.
	SendMessage(ctx context.Context, messageType, fromID, toID string, payload map[string]any) (any, error)
}

// Gateway is the full simulation backend.
type Gateway interface {
	GestureGateway

	Topology(ctx context.Context) (domain.Topology, error)
	Catalog(ctx context.Context) ([]domain.Template, error)
	DeleteNode(ctx context.Context, id string) error
	DeleteEdge(ctx context.Context, fromID, toID string) error
	SetPacketDropRate(ctx context.Context, id string, pdr float64) error
	NodeDetail(ctx context.Context, id string) (domain.NodeDetail, error)
	Logs(ctx context.Context, level string) ([]domain.LogEntry, error)
	Configurations(ctx context.Context) ([]domain.Configuration, error)
	ApplyConfiguration(ctx context.Context, id string) error
}

package ports

import (
	"context"

	"github.com/aretw0/meshpanel/pkg/domain"
)

// Surface is the graph rendering capability the interaction state machine drives.
type Surface interface {
	AddNode(node domain.GraphNode) error
	AddEdge(edge domain.GraphEdge) error

	// RemoveNode removes a node and every edge incident to it.
	RemoveNode(id string) bool

	// RemoveEdge removes the edge joining from and to, in either direction.
	RemoveEdge(fromID, toID string) bool

	// Highlight marks exactly one node as selected.
	Highlight(id string) error

	// ClearHighlight strips the selected class from every node.
	ClearHighlight()

	// Node returns the node with the given id, if it is on the surface.
	Node(id string) (domain.GraphNode, bool)
}

// Notifier surfaces messages to the operator (the "alert" of a UI).
type Notifier interface {
	Info(ctx context.Context, msg string)
	Warn(ctx context.Context, msg string)
	Error(ctx context.Context, msg string, err error)
}

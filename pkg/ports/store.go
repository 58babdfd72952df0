package ports

import (
	"context"

	"github.com/aretw0/meshpanel/pkg/domain"
)

// LedgerStore persists the nodes created through the panel.
type LedgerStore interface {
	// Record stores a created node, replacing any record with the same id.
	Record(ctx context.Context, node domain.CreatedNode) error

	// Get retrieves a record.
	// Returns domain.ErrCreatedNodeNotFound if the id is unknown.
	Get(ctx context.Context, id int) (domain.CreatedNode, error)

	// List returns every record ordered by id.
	List(ctx context.Context) ([]domain.CreatedNode, error)

	// Delete removes a record. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id int) error
}

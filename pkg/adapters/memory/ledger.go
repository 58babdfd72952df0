package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/meshpanel/pkg/domain"
)

// Ledger implements ports.LedgerStore in memory.
// Safe for concurrent use.
type Ledger struct {
	data map[int]domain.CreatedNode
	mu   sync.RWMutex
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		data: make(map[int]domain.CreatedNode),
	}
}

// Record stores the node, replacing any previous record with the same id.
func (l *Ledger) Record(ctx context.Context, node domain.CreatedNode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[node.ID] = node
	return nil
}

// Get retrieves a record.
func (l *Ledger) Get(ctx context.Context, id int) (domain.CreatedNode, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	node, ok := l.data[id]
	if !ok {
		return domain.CreatedNode{}, domain.ErrCreatedNodeNotFound
	}
	return node, nil
}

// List returns every record ordered by id.
func (l *Ledger) List(ctx context.Context) ([]domain.CreatedNode, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	nodes := make([]domain.CreatedNode, 0, len(l.data))
	for _, n := range l.data {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes, nil
}

// Delete removes a record.
func (l *Ledger) Delete(ctx context.Context, id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.data, id)
	return nil
}

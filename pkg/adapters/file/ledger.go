package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/meshpanel/pkg/domain"
)

// Ledger implements ports.LedgerStore on the local filesystem,
// one JSON file per created node.
type Ledger struct {
	BasePath string
}

// New creates a Ledger rooted at basePath.
// If basePath is empty, it defaults to ".meshpanel/nodes".
func New(basePath string) *Ledger {
	if basePath == "" {
		basePath = filepath.Join(".meshpanel", "nodes")
	}
	return &Ledger{BasePath: basePath}
}

func (l *Ledger) path(id int) string {
	return filepath.Join(l.BasePath, strconv.Itoa(id)+".json")
}

// Record writes the node atomically: temp file, fsync, rename.
func (l *Ledger) Record(ctx context.Context, node domain.CreatedNode) error {
	if node.ID < 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidNodeID, node.ID)
	}
	if err := os.MkdirAll(l.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure ledger directory: %w", err)
	}

	data, err := json.MarshalIndent(node, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(l.BasePath, fmt.Sprintf("tmp-%d-*.json", node.ID))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := l.path(node.ID)
	// Windows refuses to rename onto an existing file.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace ledger entry: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to commit ledger entry: %w", err)
	}
	return nil
}

// Get reads one record.
func (l *Ledger) Get(ctx context.Context, id int) (domain.CreatedNode, error) {
	data, err := os.ReadFile(l.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.CreatedNode{}, domain.ErrCreatedNodeNotFound
		}
		return domain.CreatedNode{}, fmt.Errorf("failed to read ledger entry: %w", err)
	}

	var node domain.CreatedNode
	if err := json.Unmarshal(data, &node); err != nil {
		return domain.CreatedNode{}, fmt.Errorf("failed to unmarshal ledger entry %d: %w", id, err)
	}
	return node, nil
}

// List returns every record ordered by id. Stray files are skipped.
func (l *Ledger) List(ctx context.Context) ([]domain.CreatedNode, error) {
	entries, err := os.ReadDir(l.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.CreatedNode{}, nil
		}
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}

	var ids []int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	nodes := make([]domain.CreatedNode, 0, len(ids))
	for _, id := range ids {
		node, err := l.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Delete removes a record.
func (l *Ledger) Delete(ctx context.Context, id int) error {
	err := os.Remove(l.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	return nil
}

// Package redis provides a Redis-backed ledger of created nodes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/meshpanel/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Ledger implements ports.LedgerStore using Redis.
// Records are JSON strings; a sorted set scored by node id keeps List ordered.
type Ledger struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Ledger)

// WithTTL sets the expiration of records. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		l.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(l *Ledger) {
		l.prefix = prefix
	}
}

// New creates a Redis ledger connected to address.
func New(address, password string, db int, opts ...Option) *Ledger {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient creates a Redis ledger from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Ledger {
	l := &Ledger{
		client: client,
		prefix: "meshpanel:node:",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) key(id int) string {
	return l.prefix + strconv.Itoa(id)
}

func (l *Ledger) indexKey() string {
	return l.prefix + "index"
}

// Record stores the node and indexes it.
func (l *Ledger) Record(ctx context.Context, node domain.CreatedNode) error {
	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}

	pipe := l.client.TxPipeline()
	pipe.Set(ctx, l.key(node.ID), data, l.ttl)
	pipe.ZAdd(ctx, l.indexKey(), backend.Z{
		Score:  float64(node.ID),
		Member: strconv.Itoa(node.ID),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get retrieves a record.
func (l *Ledger) Get(ctx context.Context, id int) (domain.CreatedNode, error) {
	val, err := l.client.Get(ctx, l.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.CreatedNode{}, domain.ErrCreatedNodeNotFound
		}
		return domain.CreatedNode{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var node domain.CreatedNode
	if err := json.Unmarshal([]byte(val), &node); err != nil {
		return domain.CreatedNode{}, fmt.Errorf("failed to unmarshal node %d: %w", id, err)
	}
	return node, nil
}

// List returns every record ordered by id. Index members whose record expired are
// pruned lazily.
func (l *Ledger) List(ctx context.Context) ([]domain.CreatedNode, error) {
	members, err := l.client.ZRange(ctx, l.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}
	if len(members) == 0 {
		return []domain.CreatedNode{}, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = l.prefix + m
	}
	vals, err := l.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger entries: %w", err)
	}

	nodes := make([]domain.CreatedNode, 0, len(vals))
	var expired []any
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, members[i])
			continue
		}
		var node domain.CreatedNode
		if err := json.Unmarshal([]byte(s), &node); err != nil {
			return nil, fmt.Errorf("failed to unmarshal node %s: %w", members[i], err)
		}
		nodes = append(nodes, node)
	}

	if len(expired) > 0 {
		if err := l.client.ZRem(ctx, l.indexKey(), expired...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired entries: %w", err)
		}
	}
	return nodes, nil
}

// Delete removes a record.
func (l *Ledger) Delete(ctx context.Context, id int) error {
	pipe := l.client.TxPipeline()
	pipe.Del(ctx, l.key(id))
	pipe.ZRem(ctx, l.indexKey(), strconv.Itoa(id))
	_, err := pipe.Exec(ctx)
	return err
}

// Close closes the redis client.
func (l *Ledger) Close() error {
	return l.client.Close()
}

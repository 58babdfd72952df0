package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/ports"
)

var _ ports.Gateway = (*Backend)(nil)

// DefaultCatalog is the template catalog served by a Backend built without one.
var DefaultCatalog = []domain.Template{
	{Name: "Rust", Type: domain.NodeTypeDrone},
	{Name: "Null Pointer", Type: domain.NodeTypeDrone},
	{Name: "Chat Client", Type: domain.NodeTypeClient},
	{Name: "Web Browser", Type: domain.NodeTypeClient},
	{Name: "Communication Server", Type: domain.NodeTypeServer},
	{Name: "Content Server", Type: domain.NodeTypeServer},
}

type simNode struct {
	node    domain.GraphNode
	pdr     float64
	sent    int
	dropped int
}

// Backend is an in-memory simulation backend implementing ports.Gateway.
// It backs tests and the offline mode of the CLI. Safe for concurrent use.
type Backend struct {
	mu       sync.Mutex
	nextID   int
	nodes    map[string]*simNode
	edges    []domain.GraphEdge
	catalog  []domain.Template
	logs     []domain.LogEntry
	configs  []domain.Configuration
	messages []SentMessage
	fail     map[string]error
}

// SentMessage is a message accepted by the Backend.
type SentMessage struct {
	Type    string
	FromID  string
	ToID    string
	Payload map[string]any
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithCatalog replaces the template catalog.
func WithCatalog(templates ...domain.Template) BackendOption {
	return func(b *Backend) {
		b.catalog = append([]domain.Template(nil), templates...)
	}
}

// WithConfigurations sets the named topologies available to ApplyConfiguration.
func WithConfigurations(configs ...domain.Configuration) BackendOption {
	return func(b *Backend) {
		b.configs = append([]domain.Configuration(nil), configs...)
	}
}

// WithFirstID sets the id the next created node receives.
func WithFirstID(id int) BackendOption {
	return func(b *Backend) {
		b.nextID = id
	}
}

// NewBackend creates an in-memory backend seeded with the given nodes and edges.
func NewBackend(nodes []domain.GraphNode, edges []domain.GraphEdge, opts ...BackendOption) *Backend {
	b := &Backend{
		nextID:  1,
		nodes:   make(map[string]*simNode),
		catalog: DefaultCatalog,
		fail:    make(map[string]error),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, n := range nodes {
		b.nodes[n.ID] = &simNode{node: n}
		if id, err := strconv.Atoi(n.ID); err == nil && id >= b.nextID {
			b.nextID = id + 1
		}
	}
	b.edges = append(b.edges, edges...)
	return b
}

// FailNext makes the next call of the named operation return err (e.g. "create_edge").
func (b *Backend) FailNext(operation string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[operation] = err
}

func (b *Backend) takeFailure(op string) error {
	err, ok := b.fail[op]
	if !ok {
		return nil
	}
	delete(b.fail, op)
	return fmt.Errorf("%w: %v", domain.ErrBackend, err)
}

func (b *Backend) logf(level, format string, args ...any) {
	b.logs = append(b.logs, domain.LogEntry{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Messages returns the messages accepted so far.
func (b *Backend) Messages() []SentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SentMessage(nil), b.messages...)
}

func (b *Backend) Topology(ctx context.Context) (domain.Topology, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("topology"); err != nil {
		return domain.Topology{}, err
	}

	ids := make([]string, 0, len(b.nodes))
	for id := range b.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })

	topo := domain.Topology{Nodes: make([]domain.GraphNode, 0, len(ids)), Edges: append([]domain.GraphEdge{}, b.edges...)}
	for _, id := range ids {
		topo.Nodes = append(topo.Nodes, b.nodes[id].node)
	}
	return topo, nil
}

func lessID(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

func (b *Backend) Catalog(ctx context.Context) ([]domain.Template, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("catalog"); err != nil {
		return nil, err
	}
	return append([]domain.Template(nil), b.catalog...), nil
}

func (b *Backend) CreateNode(ctx context.Context, nodeType domain.NodeType, subType domain.SubType) (domain.CreateNodeResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("create_node"); err != nil {
		return domain.CreateNodeResult{}, err
	}
	if !nodeType.Placeable() {
		return domain.CreateNodeResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidNodeType, nodeType)
	}

	id := b.nextID
	b.nextID++
	sid := strconv.Itoa(id)
	b.nodes[sid] = &simNode{node: domain.GraphNode{
		ID:      sid,
		Label:   domain.NodeLabel(nodeType, id),
		Type:    nodeType,
		SubType: subType,
	}}
	b.logf("info", "spawned %s %d (%s)", nodeType, id, subType)
	return domain.CreateNodeResult{ID: id, Message: fmt.Sprintf("%s %d created", nodeType.Title(), id)}, nil
}

func (b *Backend) CreateEdge(ctx context.Context, fromID, toID string) (domain.EdgeResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("create_edge"); err != nil {
		return domain.EdgeResult{}, err
	}
	for _, id := range []string{fromID, toID} {
		if _, ok := b.nodes[id]; !ok {
			return domain.EdgeResult{}, fmt.Errorf("%w: %w: %s", domain.ErrBackend, domain.ErrNodeNotFound, id)
		}
	}
	for _, e := range b.edges {
		if e.Connects(fromID, toID) {
			return domain.EdgeResult{}, fmt.Errorf("%w: nodes %s and %s are already connected", domain.ErrBackend, fromID, toID)
		}
	}
	b.edges = append(b.edges, domain.NewEdge(fromID, toID))
	b.logf("info", "connected %s and %s", fromID, toID)
	return domain.EdgeResult{Success: true, Message: "edge created"}, nil
}

func (b *Backend) SendMessage(ctx context.Context, messageType, fromID, toID string, payload map[string]any) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("send_message"); err != nil {
		return nil, err
	}
	if _, err := domain.LookupMessage(messageType); err != nil {
		return nil, err
	}
	from, ok := b.nodes[fromID]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrBackend, domain.ErrNodeNotFound, fromID)
	}
	from.sent++
	b.messages = append(b.messages, SentMessage{Type: messageType, FromID: fromID, ToID: toID, Payload: payload})
	b.logf("debug", "%s sent %s to %s", fromID, messageType, toID)
	return map[string]any{"status": "sent", "type": messageType}, nil
}

func (b *Backend) DeleteNode(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("delete_node"); err != nil {
		return err
	}
	if _, ok := b.nodes[id]; !ok {
		return fmt.Errorf("%w: %w: %s", domain.ErrBackend, domain.ErrNodeNotFound, id)
	}
	delete(b.nodes, id)
	kept := b.edges[:0]
	for _, e := range b.edges {
		if !e.Touches(id) {
			kept = append(kept, e)
		}
	}
	b.edges = kept
	b.logf("warn", "node %s crashed", id)
	return nil
}

func (b *Backend) DeleteEdge(ctx context.Context, fromID, toID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("delete_edge"); err != nil {
		return err
	}
	for i, e := range b.edges {
		if e.Connects(fromID, toID) {
			b.edges = append(b.edges[:i], b.edges[i+1:]...)
			b.logf("info", "disconnected %s and %s", fromID, toID)
			return nil
		}
	}
	return fmt.Errorf("%w: no edge between %s and %s", domain.ErrBackend, fromID, toID)
}

func (b *Backend) SetPacketDropRate(ctx context.Context, id string, pdr float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("set_pdr"); err != nil {
		return err
	}
	n, ok := b.nodes[id]
	if !ok || n.node.Type != domain.NodeTypeDrone {
		return fmt.Errorf("%w: %w: drone %s", domain.ErrBackend, domain.ErrNodeNotFound, id)
	}
	n.pdr = pdr
	b.logf("info", "drone %s pdr set to %.2f", id, pdr)
	return nil
}

func (b *Backend) NodeDetail(ctx context.Context, id string) (domain.NodeDetail, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("node_detail"); err != nil {
		return domain.NodeDetail{}, err
	}
	n, ok := b.nodes[id]
	if !ok {
		return domain.NodeDetail{}, fmt.Errorf("%w: %w: %s", domain.ErrBackend, domain.ErrNodeNotFound, id)
	}

	detail := domain.NodeDetail{
		ID:             n.node.ID,
		Label:          n.node.Label,
		Type:           n.node.Type,
		SubType:        n.node.SubType,
		PacketDropRate: n.pdr,
		PacketsSent:    n.sent,
		PacketsDropped: n.dropped,
	}
	for _, e := range b.edges {
		if !e.Touches(id) {
			continue
		}
		other := e.Target
		if other == id {
			other = e.Source
		}
		if peer, ok := b.nodes[other]; ok {
			detail.Neighbours = append(detail.Neighbours, domain.Neighbour{ID: other, Label: peer.node.Label, Type: peer.node.Type})
		}
	}
	return detail, nil
}

func (b *Backend) Logs(ctx context.Context, level string) ([]domain.LogEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("logs"); err != nil {
		return nil, err
	}
	out := make([]domain.LogEntry, 0, len(b.logs))
	for _, e := range b.logs {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out, nil
}

func (b *Backend) Configurations(ctx context.Context) ([]domain.Configuration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("configurations"); err != nil {
		return nil, err
	}
	return append([]domain.Configuration(nil), b.configs...), nil
}

func (b *Backend) ApplyConfiguration(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("apply_configuration"); err != nil {
		return err
	}
	found := false
	for i := range b.configs {
		b.configs[i].Active = b.configs[i].ID == id
		found = found || b.configs[i].Active
	}
	if !found {
		return fmt.Errorf("%w: unknown configuration %q", domain.ErrBackend, id)
	}
	b.logf("info", "configuration %s applied", id)
	return nil
}

package surface

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/meshpanel/internal/logging"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/ports"
)

// ErrDuplicateElement is returned when an element id is already on the surface.
var ErrDuplicateElement = errors.New("element already exists")

// EventKind categorizes surface changes.
type EventKind string

const (
	EventLoaded      EventKind = "loaded"
	EventNodeAdded   EventKind = "node_added"
	EventNodeRemoved EventKind = "node_removed"
	EventEdgeAdded   EventKind = "edge_added"
	EventEdgeRemoved EventKind = "edge_removed"
	EventHighlight   EventKind = "highlight"
)

// Event describes one change to the element set.
type Event struct {
	Kind   EventKind `json:"kind"`
	NodeID string    `json:"node_id,omitempty"`
	EdgeID string    `json:"edge_id,omitempty"`
}

// Surface owns the rendered element set. Safe for concurrent use.
type Surface struct {
	mu    sync.RWMutex
	order []string
	nodes map[string]*domain.GraphNode
	edges []domain.GraphEdge

	radius float64
	onTap  func(domain.TapEvent)
	logger *slog.Logger

	wmu      sync.Mutex
	watchers map[chan Event]struct{}
}

var _ ports.Surface = (*Surface)(nil)

// Option configures the Surface.
type Option func(*Surface)

// WithLogger configures a logger for the Surface.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Surface) {
		s.logger = logger
	}
}

// WithLayoutRadius overrides the radius of the refresh layout.
func WithLayoutRadius(r float64) Option {
	return func(s *Surface) {
		s.radius = r
	}
}

// New creates an empty surface.
func New(opts ...Option) *Surface {
	s := &Surface{
		nodes:    make(map[string]*domain.GraphNode),
		radius:   LayoutRadius,
		logger:   logging.NewNop(),
		watchers: make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnTap registers the callback taps are delivered to.
func (s *Surface) OnTap(fn func(domain.TapEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTap = fn
}

// Load replaces every element with the given snapshot and re-runs the radial layout.
// Edges whose endpoints are missing are dropped.
func (s *Surface) Load(nodes []domain.GraphNode, edges []domain.GraphEdge) {
	s.mu.Lock()
	s.order = s.order[:0]
	s.nodes = make(map[string]*domain.GraphNode, len(nodes))
	s.edges = s.edges[:0]

	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := s.nodes[n.ID]; dup {
			s.logger.Warn("Surface: duplicate node in snapshot", "node_id", n.ID)
			continue
		}
		c := n
		c.Classes = nil
		s.nodes[n.ID] = &c
		s.order = append(s.order, n.ID)
	}

	for i, p := range circleLayout(len(s.order), s.radius) {
		s.nodes[s.order[i]].Position = p
	}

	for _, e := range edges {
		if e.ID == "" {
			e = domain.NewEdge(e.Source, e.Target)
		}
		if !s.hasNode(e.Source) || !s.hasNode(e.Target) {
			s.logger.Warn("Surface: dropping dangling edge", "edge_id", e.ID)
			continue
		}
		if s.edgeIndex(e.Source, e.Target) >= 0 {
			continue
		}
		s.edges = append(s.edges, e)
	}
	nodeCount, edgeCount := len(s.order), len(s.edges)
	s.mu.Unlock()

	s.logger.Debug("Surface loaded", "nodes", nodeCount, "edges", edgeCount)
	s.emit(Event{Kind: EventLoaded})
}

func (s *Surface) hasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// edgeIndex finds the edge joining a and b in either direction, or -1.
func (s *Surface) edgeIndex(a, b string) int {
	return slices.IndexFunc(s.edges, func(e domain.GraphEdge) bool {
		return e.Connects(a, b)
	})
}

// AddNode adds a node at its own position.
func (s *Surface) AddNode(node domain.GraphNode) error {
	s.mu.Lock()
	if node.ID == "" {
		s.mu.Unlock()
		return fmt.Errorf("add node: %w", domain.ErrInvalidNodeID)
	}
	if s.hasNode(node.ID) {
		s.mu.Unlock()
		return fmt.Errorf("add node %s: %w", node.ID, ErrDuplicateElement)
	}
	c := node
	c.Classes = slices.Clone(node.Classes)
	s.nodes[node.ID] = &c
	s.order = append(s.order, node.ID)
	s.mu.Unlock()

	s.emit(Event{Kind: EventNodeAdded, NodeID: node.ID})
	return nil
}

// AddEdge adds an edge between two existing nodes.
func (s *Surface) AddEdge(edge domain.GraphEdge) error {
	if edge.ID == "" {
		edge = domain.NewEdge(edge.Source, edge.Target)
	}

	s.mu.Lock()
	for _, id := range []string{edge.Source, edge.Target} {
		if !s.hasNode(id) {
			s.mu.Unlock()
			return fmt.Errorf("add edge %s: %w: %s", edge.ID, domain.ErrNodeNotFound, id)
		}
	}
	if s.edgeIndex(edge.Source, edge.Target) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("add edge %s: %w", edge.ID, ErrDuplicateElement)
	}
	s.edges = append(s.edges, edge)
	s.mu.Unlock()

	s.emit(Event{Kind: EventEdgeAdded, EdgeID: edge.ID})
	return nil
}

// RemoveNode removes a node and every edge incident to it.
func (s *Surface) RemoveNode(id string) bool {
	s.mu.Lock()
	if !s.hasNode(id) {
		s.mu.Unlock()
		return false
	}
	delete(s.nodes, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })

	var removed []string
	s.edges = slices.DeleteFunc(s.edges, func(e domain.GraphEdge) bool {
		if e.Touches(id) {
			removed = append(removed, e.ID)
			return true
		}
		return false
	})
	s.mu.Unlock()

	for _, edgeID := range removed {
		s.emit(Event{Kind: EventEdgeRemoved, EdgeID: edgeID})
	}
	s.emit(Event{Kind: EventNodeRemoved, NodeID: id})
	return true
}

// RemoveEdge removes the edge joining from and to. Argument order does not matter.
func (s *Surface) RemoveEdge(fromID, toID string) bool {
	s.mu.Lock()
	i := s.edgeIndex(fromID, toID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	edgeID := s.edges[i].ID
	s.edges = slices.Delete(s.edges, i, i+1)
	s.mu.Unlock()

	s.emit(Event{Kind: EventEdgeRemoved, EdgeID: edgeID})
	return true
}

// Highlight clears every selected class and then marks the given node.
func (s *Surface) Highlight(id string) error {
	s.mu.Lock()
	if !s.hasNode(id) {
		s.mu.Unlock()
		return fmt.Errorf("highlight %s: %w", id, domain.ErrNodeNotFound)
	}
	s.clearLocked()
	n := s.nodes[id]
	n.Classes = append(n.Classes, ClassSelected)
	s.mu.Unlock()

	s.emit(Event{Kind: EventHighlight, NodeID: id})
	return nil
}

// ClearHighlight strips the selected class from every node.
func (s *Surface) ClearHighlight() {
	s.mu.Lock()
	changed := s.clearLocked()
	s.mu.Unlock()

	if changed {
		s.emit(Event{Kind: EventHighlight})
	}
}

func (s *Surface) clearLocked() bool {
	changed := false
	for _, n := range s.nodes {
		before := len(n.Classes)
		n.Classes = slices.DeleteFunc(n.Classes, func(c string) bool { return c == ClassSelected })
		changed = changed || len(n.Classes) != before
	}
	return changed
}

// Highlighted returns the ids of nodes carrying the selected class.
func (s *Surface) Highlighted() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, id := range s.order {
		if s.nodes[id].HasClass(ClassSelected) {
			out = append(out, id)
		}
	}
	return out
}

// Node returns a copy of a node.
func (s *Surface) Node(id string) (domain.GraphNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return domain.GraphNode{}, false
	}
	return copyNode(n), true
}

// Nodes returns copies of every node in insertion order.
func (s *Surface) Nodes() []domain.GraphNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.GraphNode, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyNode(s.nodes[id]))
	}
	return out
}

// Edges returns a copy of every edge.
func (s *Surface) Edges() []domain.GraphEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.edges)
}

// Snapshot returns the whole element set.
func (s *Surface) Snapshot() domain.Topology {
	return domain.Topology{Nodes: s.Nodes(), Edges: s.Edges()}
}

func copyNode(n *domain.GraphNode) domain.GraphNode {
	c := *n
	c.Classes = slices.Clone(n.Classes)
	return c
}

// HitTest returns the node closest to pos within half the node size.
func (s *Surface) HitTest(pos domain.Position) (domain.GraphNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  *domain.GraphNode
		bestD = NodeSize / 2
	)
	for _, id := range s.order {
		n := s.nodes[id]
		if d := distance(n.Position, pos); d <= bestD {
			best, bestD = n, d
		}
	}
	if best == nil {
		return domain.GraphNode{}, false
	}
	return copyNode(best), true
}

// Tap resolves a tap at pos and delivers it to the registered callback.
func (s *Surface) Tap(pos domain.Position) domain.TapEvent {
	ev := domain.BackgroundTap(pos)
	if n, ok := s.HitTest(pos); ok {
		ev = domain.NodeTap(n)
	}
	s.deliver(ev)
	return ev
}

// TapNode delivers a tap on a node by id.
func (s *Surface) TapNode(id string) (domain.TapEvent, error) {
	n, ok := s.Node(id)
	if !ok {
		return domain.TapEvent{}, fmt.Errorf("tap %s: %w", id, domain.ErrNodeNotFound)
	}
	ev := domain.NodeTap(n)
	s.deliver(ev)
	return ev, nil
}

func (s *Surface) deliver(ev domain.TapEvent) {
	s.mu.RLock()
	fn := s.onTap
	s.mu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}

// Watch streams surface changes until ctx is done.
func (s *Surface) Watch(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)

	s.wmu.Lock()
	s.watchers[ch] = struct{}{}
	s.wmu.Unlock()

	go func() {
		<-ctx.Done()
		s.wmu.Lock()
		delete(s.watchers, ch)
		close(ch)
		s.wmu.Unlock()
	}()
	return ch
}

func (s *Surface) emit(ev Event) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- ev:
		default:
			s.logger.Debug("Surface: watcher lagging, event dropped", "kind", ev.Kind)
		}
	}
}

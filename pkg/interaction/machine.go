package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/meshpanel/internal/logging"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/ports"
	"github.com/aretw0/meshpanel/pkg/toolbar"
)

// Machine is the interaction state machine. Safe for concurrent use; taps are evaluated
// one at a time, but backend calls run without holding the lock.
type Machine struct {
	store    *toolbar.Store
	surface  ports.Surface
	gateway  ports.GestureGateway
	notifier ports.Notifier
	ledger   ports.LedgerStore
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time

	onNodeSelect func(domain.TapEvent)

	mu          sync.Mutex
	armed       string
	generation  uint64
	unsubscribe func()
}

// Option configures the Machine.
type Option func(*Machine)

// WithLogger configures a logger for the Machine.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithNotifier sets where user-visible warnings and errors go.
func WithNotifier(n ports.Notifier) Option {
	return func(m *Machine) {
		m.notifier = n
	}
}

// WithLedger records created nodes in a persistent ledger.
func WithLedger(l ports.LedgerStore) Option {
	return func(m *Machine) {
		m.ledger = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithNodeSelect sets the callback for node taps in cursor mode.
func WithNodeSelect(fn func(domain.TapEvent)) Option {
	return func(m *Machine) {
		m.onNodeSelect = fn
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// New creates a Machine bound to a toolbar store and subscribes to its mode changes.
func New(store *toolbar.Store, surface ports.Surface, gateway ports.GestureGateway, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		surface:  surface,
		gateway:  gateway,
		notifier: LogNotifier{},
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if n, ok := m.notifier.(LogNotifier); ok && n.Logger == nil {
		m.notifier = LogNotifier{Logger: m.logger}
	}
	m.unsubscribe = store.Subscribe(m.onModeChange)
	return m
}

// Close detaches the Machine from the toolbar store.
func (m *Machine) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Armed returns the armed first endpoint, or "".
func (m *Machine) Armed() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

// onModeChange enforces the cross-cutting rule: any tool or node-type change drops the
// armed endpoint and every highlight. In message mode the store's sender is the record of
// the gesture, so stopping node selection or clearing the sender drops it too.
func (m *Machine) onModeChange(c toolbar.Change) {
	switch c.Kind {
	case toolbar.ChangeTool, toolbar.ChangeNodeType:
		m.mu.Lock()
		m.resetLocked()
		m.mu.Unlock()

	case toolbar.ChangeMessage, toolbar.ChangeFromNode:
		m.mu.Lock()
		dropped := m.messageGestureDropped(c)
		if dropped {
			m.resetLocked()
		}
		m.mu.Unlock()
		if dropped && c.Snapshot.SelectedFromNode != "" {
			m.store.SetSelectedFromNode("")
		}
	}
}

// messageGestureDropped reports whether c leaves the armed message gesture without a sender.
func (m *Machine) messageGestureDropped(c toolbar.Change) bool {
	if m.armed == "" || c.Snapshot.ActiveTool != domain.ToolMessage {
		return false
	}
	if c.Kind == toolbar.ChangeMessage {
		return !c.Snapshot.IsSelectingNodes
	}
	return c.Snapshot.SelectedFromNode != m.armed
}

// resetLocked clears the armed cell and highlight and starts a new gesture generation.
func (m *Machine) resetLocked() {
	if m.armed != "" {
		m.logger.Debug("Gesture cancelled by mode change", "armed", m.armed)
	}
	m.armed = ""
	m.generation++
	m.surface.ClearHighlight()
}

// HandleTap interprets a single tap against the current mode.
func (m *Machine) HandleTap(ctx context.Context, ev domain.TapEvent) (Outcome, error) {
	mode := m.store.Snapshot()

	switch mode.ActiveTool {
	case domain.ToolCursor:
		return m.handleCursor(ctx, ev), nil

	case domain.ToolAdd:
		switch {
		case mode.SelectedNodeType == domain.NodeTypeEdge:
			return m.handleTwoTap(ctx, ev, GestureLinkEdge, mode)
		case mode.SelectedNodeType.Placeable():
			return m.handlePlacement(ctx, ev, mode)
		}
		return OutcomeIgnored, nil

	case domain.ToolMessage:
		if !mode.IsSelectingNodes {
			return OutcomeIgnored, nil
		}
		return m.handleTwoTap(ctx, ev, GestureSendMessage, mode)
	}
	return OutcomeIgnored, nil
}

func (m *Machine) handleCursor(ctx context.Context, ev domain.TapEvent) Outcome {
	if !ev.OnNode() {
		return OutcomeIgnored
	}
	if m.onNodeSelect != nil {
		m.onNodeSelect(ev)
	}
	if m.hooks.OnNodeSelected != nil {
		m.hooks.OnNodeSelected(ctx, &domain.NodeEvent{
			EventBase: m.base(domain.EventNodeSelected),
			Node:      domain.GraphNode{ID: ev.NodeID, Label: ev.Label, Type: ev.NodeType, Position: ev.Position},
		})
	}
	return OutcomeSelected
}

func (m *Machine) handlePlacement(ctx context.Context, ev domain.TapEvent, mode toolbar.Snapshot) (Outcome, error) {
	if ev.OnNode() {
		return OutcomeIgnored, nil
	}

	nodeType := mode.SelectedNodeType
	if mode.SelectedSpecificNode == nil {
		m.notifier.Warn(ctx, "Please select a specific node from the toolbar first!")
		return OutcomeRejected, domain.ErrTemplateRequired
	}
	subType, err := domain.ResolveSubType(withType(*mode.SelectedSpecificNode, nodeType))
	if err != nil {
		m.notifier.Warn(ctx, err.Error())
		return OutcomeRejected, err
	}

	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	start := m.now()
	res, err := m.gateway.CreateNode(ctx, nodeType, subType)
	m.backendCall(ctx, "create_node", start, err)
	if err != nil {
		return m.fail(ctx, GesturePlaceNode, start, !m.current(gen), fmt.Errorf("failed to create node: %w", err))
	}

	node := domain.GraphNode{
		ID:       strconv.Itoa(res.ID),
		Label:    domain.NodeLabel(nodeType, res.ID),
		Type:     nodeType,
		SubType:  subType,
		Position: ev.Position,
	}
	if err := m.surface.AddNode(node); err != nil {
		m.logger.Warn("Created node could not be added to the surface", "node_id", node.ID, "err", err)
	}

	created := domain.CreatedNode{
		ID:        res.ID,
		Type:      nodeType,
		SubType:   subType,
		Name:      fmt.Sprintf("%s%d", nodeType.Title(), res.ID),
		Position:  ev.Position,
		CreatedAt: m.now().Unix(),
	}
	m.store.AddCreatedNode(created)
	if m.ledger != nil {
		if err := m.ledger.Record(ctx, created); err != nil {
			m.logger.Error("Failed to record created node", "node_id", res.ID, "err", err)
		}
	}

	// Placement is one-shot, unless a newer gesture already owns the selection.
	if m.current(gen) {
		m.store.ResetPlacement()
	}

	m.logger.Info("Node created", "node_id", node.ID, "type", nodeType, "subtype", subType, "backend_message", res.Message)
	if m.hooks.OnNodeCreated != nil {
		m.hooks.OnNodeCreated(ctx, &domain.NodeEvent{EventBase: m.base(domain.EventNodeCreated), Node: node})
	}
	return OutcomeNodeCreated, nil
}

func withType(t domain.Template, nodeType domain.NodeType) domain.Template {
	if t.Type == "" {
		t.Type = nodeType
	}
	return t
}

// handleTwoTap runs the arm / cancel / complete choreography shared by edge links and
// message sends. Background taps never change the armed state.
func (m *Machine) handleTwoTap(ctx context.Context, ev domain.TapEvent, gesture Gesture, mode toolbar.Snapshot) (Outcome, error) {
	if !ev.OnNode() {
		return OutcomeIgnored, nil
	}
	id := ev.NodeID

	m.mu.Lock()
	if m.armed != "" {
		// The first endpoint was crashed or dropped by a reload; this tap starts over.
		if _, ok := m.surface.Node(m.armed); !ok {
			m.logger.Debug("Armed endpoint left the surface", "gesture", gesture, "node_id", m.armed)
			m.resetLocked()
		}
	}
	switch m.armed {
	case "":
		if err := m.surface.Highlight(id); err != nil {
			m.mu.Unlock()
			return OutcomeIgnored, err
		}
		m.armed = id
		m.mu.Unlock()
		if gesture == GestureSendMessage {
			m.store.SetSelectedFromNode(id)
		}
		m.logger.Debug("Gesture armed", "gesture", gesture, "node_id", id)
		return OutcomeArmed, nil

	case id:
		m.armed = ""
		m.surface.ClearHighlight()
		m.mu.Unlock()
		if gesture == GestureSendMessage {
			m.store.SetSelectedFromNode("")
		}
		m.logger.Debug("Gesture disarmed", "gesture", gesture, "node_id", id)
		return OutcomeDisarmed, nil
	}

	from, gen := m.armed, m.generation
	m.mu.Unlock()

	if gesture == GestureLinkEdge {
		return m.completeEdge(ctx, from, id, gen)
	}
	return m.completeMessage(ctx, from, id, gen, mode.Draft())
}

func (m *Machine) completeEdge(ctx context.Context, from, to string, gen uint64) (Outcome, error) {
	start := m.now()
	res, err := m.gateway.CreateEdge(ctx, from, to)
	m.backendCall(ctx, "create_edge", start, err)

	// Disarm regardless of the result; a failed link must not leave a stuck endpoint.
	owned := m.settle(gen)

	if err != nil {
		return m.fail(ctx, GestureLinkEdge, start, !owned, fmt.Errorf("failed to create edge: %w", err))
	}

	edge := domain.NewEdge(from, to)
	if err := m.surface.AddEdge(edge); err != nil {
		if errors.Is(err, domain.ErrNodeNotFound) {
			return m.fail(ctx, GestureLinkEdge, start, !owned, fmt.Errorf("failed to draw edge: %w", err))
		}
		m.logger.Warn("Created edge could not be added to the surface", "edge_id", edge.ID, "err", err)
	}

	m.logger.Info("Edge created", "from", from, "to", to, "backend_message", res.Message)
	if m.hooks.OnEdgeCreated != nil {
		m.hooks.OnEdgeCreated(ctx, &domain.EdgeEvent{EventBase: m.base(domain.EventEdgeCreated), Edge: edge})
	}
	return OutcomeEdgeCreated, nil
}

func (m *Machine) completeMessage(ctx context.Context, from, to string, gen uint64, draft domain.MessageDraft) (Outcome, error) {
	draft, err := draft.Validate()
	if err != nil {
		m.settle(gen)
		m.notifier.Warn(ctx, err.Error())
		return OutcomeRejected, err
	}

	start := m.now()
	result, err := m.gateway.SendMessage(ctx, draft.Type, from, to, draft.Payload)
	m.backendCall(ctx, "send_message", start, err)

	owned := m.settle(gen)

	if err != nil {
		return m.fail(ctx, GestureSendMessage, start, !owned, fmt.Errorf("failed to send message: %w", err))
	}

	if owned {
		m.store.ResetMessageState()
	}
	m.notifier.Info(ctx, fmt.Sprintf("Message sent successfully! Type: %s From: %s To: %s", draft.Type, from, to))
	m.logger.Info("Message sent", "type", draft.Type, "from", from, "to", to)
	if m.hooks.OnMessageSent != nil {
		m.hooks.OnMessageSent(ctx, &domain.MessageEvent{
			EventBase:   m.base(domain.EventMessageSent),
			MessageType: draft.Type,
			FromID:      from,
			ToID:        to,
			Result:      result,
		})
	}
	return OutcomeMessageSent, nil
}

// settle ends a two-tap gesture: clears the armed cell and highlight, unless a mode change
// already did so and a newer gesture may own them. It reports whether gen was still current.
func (m *Machine) settle(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return false
	}
	m.resetLocked()
	return true
}

// current reports whether gen is still the active gesture generation.
func (m *Machine) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation == gen
}

func (m *Machine) fail(ctx context.Context, gesture Gesture, start time.Time, stale bool, err error) (Outcome, error) {
	m.notifier.Error(ctx, fmt.Sprintf("Gesture %s failed", gesture), err)
	m.logger.Error("Gesture failed", "gesture", gesture, "err", err, "stale", stale)
	if m.hooks.OnGestureFailed != nil {
		m.hooks.OnGestureFailed(ctx, &domain.GestureEvent{
			EventBase: m.base(domain.EventGestureFailed),
			Gesture:   string(gesture),
			Err:       err,
			Elapsed:   m.now().Sub(start),
		})
	}
	return OutcomeFailed, err
}

func (m *Machine) backendCall(ctx context.Context, op string, start time.Time, err error) {
	if m.hooks.OnBackendCall == nil {
		return
	}
	m.hooks.OnBackendCall(ctx, &domain.CallEvent{
		EventBase: m.base(domain.EventBackendCall),
		Operation: op,
		Elapsed:   m.now().Sub(start),
		IsError:   err != nil,
	})
}

func (m *Machine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: m.now(), Type: t}
}

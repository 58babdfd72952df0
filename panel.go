package meshpanel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/aretw0/meshpanel/internal/logging"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/interaction"
	"github.com/aretw0/meshpanel/pkg/ports"
	"github.com/aretw0/meshpanel/pkg/surface"
	"github.com/aretw0/meshpanel/pkg/toolbar"
)

// Panel wires the toolbar store, the graph surface and the interaction machine to a
// simulation backend, and exposes the side-panel operations.
type Panel struct {
	gateway  ports.Gateway
	store    *toolbar.Store
	surface  *surface.Surface
	machine  *interaction.Machine
	ledger   ports.LedgerStore
	notifier ports.Notifier
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	onNodeSelect   func(domain.TapEvent)
	surfaceOptions []surface.Option
}

// Option defines a functional option for configuring the Panel.
type Option func(*Panel)

// WithLogger sets a structured logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Panel) {
		p.logger = logger
	}
}

// WithLedger persists created nodes.
func WithLedger(l ports.LedgerStore) Option {
	return func(p *Panel) {
		p.ledger = l
	}
}

// WithNotifier routes operator alerts. Defaults to the logger.
func WithNotifier(n ports.Notifier) Option {
	return func(p *Panel) {
		p.notifier = n
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Panel) {
		p.hooks = p.hooks.Merge(hooks)
	}
}

// WithNodeSelect is called for node taps in cursor mode.
func WithNodeSelect(fn func(domain.TapEvent)) Option {
	return func(p *Panel) {
		p.onNodeSelect = fn
	}
}

// WithSurfaceOptions configures the graph surface.
func WithSurfaceOptions(opts ...surface.Option) Option {
	return func(p *Panel) {
		p.surfaceOptions = append(p.surfaceOptions, opts...)
	}
}

// New creates a Panel for the given backend.
func New(gateway ports.Gateway, opts ...Option) *Panel {
	p := &Panel{
		gateway: gateway,
		store:   toolbar.NewStore(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.notifier == nil {
		p.notifier = interaction.LogNotifier{Logger: p.logger}
	}

	p.surface = surface.New(append([]surface.Option{surface.WithLogger(p.logger)}, p.surfaceOptions...)...)

	machineOpts := []interaction.Option{
		interaction.WithLogger(p.logger),
		interaction.WithNotifier(p.notifier),
		interaction.WithLifecycleHooks(p.hooks),
		interaction.WithNodeSelect(p.onNodeSelect),
	}
	if p.ledger != nil {
		machineOpts = append(machineOpts, interaction.WithLedger(p.ledger))
	}
	p.machine = interaction.New(p.store, p.surface, gateway, machineOpts...)
	return p
}

// Close detaches the interaction machine from the store.
func (p *Panel) Close() {
	p.machine.Close()
}

// Store returns the toolbar mode store.
func (p *Panel) Store() *toolbar.Store { return p.store }

// Surface returns the graph surface.
func (p *Panel) Surface() *surface.Surface { return p.surface }

// Machine returns the interaction state machine.
func (p *Panel) Machine() *interaction.Machine { return p.machine }

// Refresh reloads the topology into the surface. On failure the surface keeps its
// previous contents.
func (p *Panel) Refresh(ctx context.Context) error {
	topo, err := p.gateway.Topology(ctx)
	if err != nil {
		p.logger.Error("Failed to fetch topology", "err", err)
		return fmt.Errorf("failed to fetch topology: %w", err)
	}
	p.surface.Load(topo.Nodes, topo.Edges)
	p.logger.Info("Topology loaded", "nodes", len(topo.Nodes), "edges", len(topo.Edges))
	return nil
}

// LoadCatalog fetches the placeable templates into the toolbar store.
func (p *Panel) LoadCatalog(ctx context.Context) error {
	templates, err := p.gateway.Catalog(ctx)
	if err != nil {
		p.logger.Error("Failed to fetch node catalog", "err", err)
		return fmt.Errorf("failed to fetch node catalog: %w", err)
	}
	p.store.SetAvailableNodes(templates)
	return nil
}

// Tap forwards a tap event to the interaction machine.
func (p *Panel) Tap(ctx context.Context, ev domain.TapEvent) (interaction.Outcome, error) {
	return p.machine.HandleTap(ctx, ev)
}

// TapAt resolves a position against the surface and taps whatever is there.
func (p *Panel) TapAt(ctx context.Context, pos domain.Position) (interaction.Outcome, error) {
	return p.machine.HandleTap(ctx, p.surface.Tap(pos))
}

// TapNode taps a node by id.
func (p *Panel) TapNode(ctx context.Context, id string) (interaction.Outcome, error) {
	ev, err := p.surface.TapNode(id)
	if err != nil {
		return interaction.OutcomeIgnored, err
	}
	return p.machine.HandleTap(ctx, ev)
}

// CrashNode removes a node from the simulation and, on success, from the surface along
// with its edges.
func (p *Panel) CrashNode(ctx context.Context, id string) error {
	if err := p.gateway.DeleteNode(ctx, id); err != nil {
		p.notifier.Error(ctx, fmt.Sprintf("Failed to crash node %s", id), err)
		return fmt.Errorf("failed to crash node %s: %w", id, err)
	}
	p.surface.RemoveNode(id)

	if p.ledger != nil {
		if n, err := strconv.Atoi(id); err == nil {
			if err := p.ledger.Delete(ctx, n); err != nil {
				p.logger.Warn("Failed to drop crashed node from ledger", "node_id", id, "err", err)
			}
		}
	}
	p.logger.Info("Node crashed", "node_id", id)
	return nil
}

// RemoveEdge unlinks two nodes.
func (p *Panel) RemoveEdge(ctx context.Context, fromID, toID string) error {
	if err := p.gateway.DeleteEdge(ctx, fromID, toID); err != nil {
		p.notifier.Error(ctx, fmt.Sprintf("Failed to remove edge %s-%s", fromID, toID), err)
		return fmt.Errorf("failed to remove edge: %w", err)
	}
	p.surface.RemoveEdge(fromID, toID)
	p.logger.Info("Edge removed", "from", fromID, "to", toID)
	return nil
}

// SetPacketDropRate updates a drone's packet drop rate, rejecting values outside [0, 1].
func (p *Panel) SetPacketDropRate(ctx context.Context, id string, pdr float64) error {
	if err := domain.ValidatePDR(pdr); err != nil {
		p.notifier.Warn(ctx, err.Error())
		return err
	}
	if err := p.gateway.SetPacketDropRate(ctx, id, pdr); err != nil {
		p.notifier.Error(ctx, fmt.Sprintf("Failed to set packet drop rate of %s", id), err)
		return fmt.Errorf("failed to set packet drop rate: %w", err)
	}
	return nil
}

// NodeDetail fetches the backend view of a node.
func (p *Panel) NodeDetail(ctx context.Context, id string) (domain.NodeDetail, error) {
	detail, err := p.gateway.NodeDetail(ctx, id)
	if err != nil {
		p.logger.Error("Failed to fetch node detail", "node_id", id, "err", err)
		return domain.NodeDetail{}, fmt.Errorf("failed to fetch node %s: %w", id, err)
	}
	return detail, nil
}

// Logs returns simulation logs newest first. A positive limit truncates the result.
func (p *Panel) Logs(ctx context.Context, level string, limit int) ([]domain.LogEntry, error) {
	entries, err := p.gateway.Logs(ctx, level)
	if err != nil {
		p.logger.Error("Failed to fetch logs", "level", level, "err", err)
		return nil, fmt.Errorf("failed to fetch logs: %w", err)
	}
	entries = slices.Clone(entries)
	slices.Reverse(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Configurations lists the topology presets known by the backend.
func (p *Panel) Configurations(ctx context.Context) ([]domain.Configuration, error) {
	configs, err := p.gateway.Configurations(ctx)
	if err != nil {
		p.logger.Error("Failed to fetch configurations", "err", err)
		return nil, fmt.Errorf("failed to fetch configurations: %w", err)
	}
	return configs, nil
}

// ApplyConfiguration switches the backend to a preset and reloads the topology.
func (p *Panel) ApplyConfiguration(ctx context.Context, id string) error {
	if err := p.gateway.ApplyConfiguration(ctx, id); err != nil {
		p.notifier.Error(ctx, fmt.Sprintf("Failed to apply configuration %s", id), err)
		return fmt.Errorf("failed to apply configuration %s: %w", id, err)
	}
	return p.Refresh(ctx)
}

// ValidateDraft checks a message draft against the message catalog and returns it with a
// normalized payload.
func (p *Panel) ValidateDraft(draft domain.MessageDraft) (domain.MessageDraft, error) {
	return draft.Validate()
}

// CreatedNodes returns the nodes placed through the panel, from the ledger when one is
// configured.
func (p *Panel) CreatedNodes(ctx context.Context) ([]domain.CreatedNode, error) {
	if p.ledger == nil {
		return p.store.CreatedNodes(), nil
	}
	return p.ledger.List(ctx)
}

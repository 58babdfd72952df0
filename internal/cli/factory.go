package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/meshpanel"
	"github.com/aretw0/meshpanel/internal/config"
	"github.com/aretw0/meshpanel/pkg/adapters/file"
	"github.com/aretw0/meshpanel/pkg/adapters/memory"
	"github.com/aretw0/meshpanel/pkg/adapters/redis"
	"github.com/aretw0/meshpanel/pkg/adapters/rest"
	"github.com/aretw0/meshpanel/pkg/observability"
	"github.com/aretw0/meshpanel/pkg/ports"
)

// PanelOptions configures NewPanel.
type PanelOptions struct {
	Config *config.Config
	Logger *slog.Logger
	// Gateway replaces the REST client, e.g. with an in-memory simulation.
	Gateway ports.Gateway
	Metrics *observability.Metrics
}

// NewPanel builds a Panel wired to the configured backend and ledger, refreshes the
// topology and loads the catalog. The returned func releases the ledger and the panel.
func NewPanel(ctx context.Context, opts PanelOptions) (*meshpanel.Panel, func(), error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gateway := opts.Gateway
	if gateway == nil {
		gateway = rest.New(cfg.APIURL, rest.WithTimeout(cfg.Timeout), rest.WithLogger(logger))
	}

	ledger, closeLedger, err := newLedger(cfg.Ledger)
	if err != nil {
		return nil, nil, err
	}

	hooks := observability.LoggingHooks(logger)
	if opts.Metrics != nil {
		hooks = hooks.Merge(opts.Metrics.Hooks())
	}

	panel := meshpanel.New(gateway,
		meshpanel.WithLogger(logger),
		meshpanel.WithLedger(ledger),
		meshpanel.WithLifecycleHooks(hooks),
	)
	cleanup := func() {
		panel.Close()
		if err := closeLedger(); err != nil {
			logger.Warn("Failed to close ledger", "err", err)
		}
	}

	// The panel stays usable with an empty graph when the simulation is down.
	if err := panel.Refresh(ctx); err != nil {
		logger.Warn("Initial topology fetch failed", "api_url", cfg.APIURL, "err", err)
	}
	if err := panel.LoadCatalog(ctx); err != nil {
		logger.Warn("Catalog fetch failed", "api_url", cfg.APIURL, "err", err)
	}
	return panel, cleanup, nil
}

func newLedger(cfg config.LedgerConfig) (ports.LedgerStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "", config.LedgerMemory:
		return memory.NewLedger(), noop, nil
	case config.LedgerFile:
		return file.New(cfg.Path), noop, nil
	case config.LedgerRedis:
		var opts []redis.Option
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		l := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		return l, l.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

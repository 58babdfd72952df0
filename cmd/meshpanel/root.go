package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/meshpanel"
	"github.com/aretw0/meshpanel/internal/cli"
	"github.com/aretw0/meshpanel/internal/config"
	"github.com/aretw0/meshpanel/pkg/adapters/memory"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/observability"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "meshpanel",
	Short:         "meshpanel is a control panel for drone network simulations",
	Long:          `meshpanel edits and inspects a running drone network simulation: place nodes, link them, send protocol test messages and tune drones.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the meshpanel YAML config")
	rootCmd.PersistentFlags().String("api-url", "", "Simulation backend URL (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().Bool("simulate", false, "Use a built-in in-memory simulation instead of the backend")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("api-url"); v != "" {
		cfg.APIURL = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// env bundles what every command needs.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	panel   *meshpanel.Panel
	metrics *observability.Metrics
	close   func()
}

func setup(cmd *cobra.Command, metrics *observability.Metrics) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, logCloser, err := cli.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	opts := cli.PanelOptions{Config: cfg, Logger: logger, Metrics: metrics}
	if simulate, _ := cmd.Flags().GetBool("simulate"); simulate {
		opts.Gateway = demoSimulation()
		logger.Info("Using in-memory simulation")
	}

	panel, cleanup, err := cli.NewPanel(cmd.Context(), opts)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	return &env{
		cfg:     cfg,
		logger:  logger,
		panel:   panel,
		metrics: metrics,
		close: func() {
			cleanup()
			_ = logCloser.Close()
		},
	}, nil
}

// demoSimulation is a small mesh: two clients and a server reachable over a drone ring.
func demoSimulation() *memory.Backend {
	nodes := []domain.GraphNode{
		{ID: "1", Label: "Drone 1", Type: domain.NodeTypeDrone},
		{ID: "2", Label: "Drone 2", Type: domain.NodeTypeDrone},
		{ID: "3", Label: "Drone 3", Type: domain.NodeTypeDrone},
		{ID: "4", Label: "Client 4", Type: domain.NodeTypeClient},
		{ID: "5", Label: "Client 5", Type: domain.NodeTypeClient},
		{ID: "6", Label: "Server 6", Type: domain.NodeTypeServer},
	}
	edges := []domain.GraphEdge{
		domain.NewEdge("1", "2"),
		domain.NewEdge("2", "3"),
		domain.NewEdge("3", "1"),
		domain.NewEdge("4", "1"),
		domain.NewEdge("5", "2"),
		domain.NewEdge("6", "3"),
	}
	return memory.NewBackend(nodes, edges,
		memory.WithFirstID(7),
		memory.WithConfigurations(
			domain.Configuration{ID: "ring", Name: "Ring", Description: "Three drones in a ring", Active: true},
			domain.Configuration{ID: "line", Name: "Line", Description: "Drones in a chain"},
		),
	)
}

// withPanel runs fn against a fully wired panel.
func withPanel(cmd *cobra.Command, fn func(ctx context.Context, e *env, out io.Writer) error) error {
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(cmd.Context(), e, cmd.OutOrStdout())
}

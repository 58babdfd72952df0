package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/aretw0/meshpanel/internal/presentation/graph"
	"github.com/aretw0/meshpanel/internal/presentation/tui"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/spf13/cobra"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Print the simulation topology as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(cmd, func(ctx context.Context, e *env, out io.Writer) error {
			if err := e.panel.Refresh(ctx); err != nil {
				return err
			}
			return printJSON(out, e.panel.Surface().Snapshot())
		})
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List node templates and protocol message types",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(cmd, func(ctx context.Context, e *env, out io.Writer) error {
			if err := e.panel.LoadCatalog(ctx); err != nil {
				return err
			}
			return printJSON(out, map[string]any{
				"nodes":    e.panel.Store().Snapshot().AvailableNodes,
				"messages": domain.MessageCatalog(),
			})
		})
	},
}

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the topology visualization",
	Long:  `Fetches the simulation topology and outputs a Mermaid diagram (graph LR).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(cmd, func(ctx context.Context, e *env, out io.Writer) error {
			if err := e.panel.Refresh(ctx); err != nil {
				return err
			}
			fmt.Fprint(out, graph.GenerateMermaid(e.panel.Surface().Snapshot()))
			return nil
		})
	},
}

var nodeCmd = &cobra.Command{
	Use:   "node <id>",
	Short: "Show a node's neighbours and packet statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withPanel(cmd, func(ctx context.Context, e *env, out io.Writer) error {
			detail, err := e.panel.NodeDetail(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, detail)
			}
			md := tui.NodeDetailMarkdown(detail)
			if rendered, err := tui.NewRenderer()(md); err == nil {
				md = rendered
			}
			fmt.Fprint(out, md)
			return nil
		})
	},
}

var crashCmd = &cobra.Command{
	Use:   "crash <id>",
	Short: "Crash a node in the simulation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(cmd, func(ctx context.Context, e *env, out io.Writer) error {
			if err := e.panel.CrashNode(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out, "node %s crashed\n", args[0])
			return nil
		})
	},
}

var pdrCmd = &cobra.Command{
	Use:   "pdr <id> <rate>",
	Short: "Set a drone's packet drop rate (0 to 1)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rate, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid rate %q: %w", args[1], err)
		}
		if err := domain.ValidatePDR(rate); err != nil {
			return err
		}
		return withPanel(cmd, func(ctx context.Context, e *env, out io.Writer) error {
			if err := e.panel.SetPacketDropRate(ctx, args[0], rate); err != nil {
				return err
			}
			fmt.Fprintf(out, "drone %s packet drop rate set to %.2f\n", args[0], rate)
			return nil
		})
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show simulation logs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("level")
		limit, _ := cmd.Flags().GetInt("limit")
		return withPanel(cmd, func(ctx context.Context, e *env, out io.Writer) error {
			if !cmd.Flags().Changed("limit") {
				limit = e.cfg.LogsLimit
			}
			entries, err := e.panel.Logs(ctx, level, limit)
			if err != nil {
				return err
			}
			fmt.Fprint(out, tui.LogsText(entries))
			return nil
		})
	},
}

var createdCmd = &cobra.Command{
	Use:   "created",
	Short: "List nodes placed from the panel (from the configured ledger)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(cmd, func(ctx context.Context, e *env, out io.Writer) error {
			nodes, err := e.panel.CreatedNodes(ctx)
			if err != nil {
				return err
			}
			if len(nodes) == 0 {
				fmt.Fprintln(out, "No created nodes recorded.")
				return nil
			}
			return printJSON(out, nodes)
		})
	},
}

func init() {
	nodeCmd.Flags().Bool("json", false, "Print raw JSON")
	logsCmd.Flags().String("level", "", "Only this level (error, warn, info, debug)")
	logsCmd.Flags().Int("limit", 0, "Maximum number of entries (default from config)")

	rootCmd.AddCommand(topologyCmd, catalogCmd, graphCmd, nodeCmd, crashCmd, pdrCmd, logsCmd, createdCmd)
}

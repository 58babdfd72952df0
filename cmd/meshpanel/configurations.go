package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "List or apply simulation topology presets",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topology presets known by the simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(cmd, func(ctx context.Context, e *env, out io.Writer) error {
			configs, err := e.panel.Configurations(ctx)
			if err != nil {
				return err
			}
			if len(configs) == 0 {
				fmt.Fprintln(out, "No configurations found.")
				return nil
			}
			for _, c := range configs {
				marker := " "
				if c.Active {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-12s %s\n", marker, c.ID, c.Name)
			}
			return nil
		})
	},
}

var configApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Apply a topology preset and print the new topology size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(cmd, func(ctx context.Context, e *env, out io.Writer) error {
			if err := e.panel.ApplyConfiguration(ctx, args[0]); err != nil {
				return err
			}
			topo := e.panel.Surface().Snapshot()
			fmt.Fprintf(out, "configuration %s applied: %d nodes, %d edges\n", args[0], len(topo.Nodes), len(topo.Edges))
			return nil
		})
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configApplyCmd)
	rootCmd.AddCommand(configCmd)
}

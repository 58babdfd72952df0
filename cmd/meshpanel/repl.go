package main

import (
	"os"

	"github.com/aretw0/meshpanel/internal/cli"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Drive the panel interactively",
	Long: `Starts a line-oriented panel. Each line is one gesture or query, for example:

  tool add
  type drone
  template Rust
  tap 120 80

Commands can also be piped from a script.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		cmd.SetContext(sigCtx)

		e, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer e.close()

		repl := cli.NewREPL(e.panel, os.Stdin, cmd.OutOrStdout(), cli.WithLogsLimit(e.cfg.LogsLimit))
		return cli.HandleExecutionError(repl.Run(sigCtx))
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print topology changes as the simulation evolves",
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		cmd.SetContext(sigCtx)

		interval, _ := cmd.Flags().GetDuration("interval")
		e, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer e.close()

		err = cli.Watch(sigCtx, e.panel, cmd.OutOrStdout(), cli.WatchOptions{Interval: interval, Logger: e.logger})
		return cli.HandleExecutionError(err)
	},
}

func init() {
	watchCmd.Flags().Duration("interval", 0, "Poll interval (default 2s)")
	rootCmd.AddCommand(replCmd, watchCmd)
}

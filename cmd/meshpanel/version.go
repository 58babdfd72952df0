package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/meshpanel"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of meshpanel",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "meshpanel version %s\n", strings.TrimSpace(meshpanel.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

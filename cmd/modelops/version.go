package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags during releases
var (
	version = "latest"
	commit  = "unknown"
	date    = "unknown"
)

func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "modelops version %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

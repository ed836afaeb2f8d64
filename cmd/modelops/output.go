package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

const defaultTimeout = 30 * time.Second

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func groupCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		RunE:          func(cmd *cobra.Command, args []string) error { return cmd.Help() },
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

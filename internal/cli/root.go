// Package cli wires the command-line interface using Cobra.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tablesnap",
		Short: "tablesnap - Baserow table snapshots for the tools dashboard",
		Long: `tablesnap fetches the full contents of the configured Baserow tables,
validates the rows against lightweight quality checks and persists each
table as a JSON snapshot for the dashboard to consume.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewFetchCmd())
	rootCmd.AddCommand(NewProcessCmd())

	return rootCmd
}

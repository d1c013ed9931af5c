package cmd

import (
	"github.com/dendrascience/wadfs/version"
	"github.com/spf13/cobra"
)

// NewVersionCmd creates and returns the version subcommand for the wadfs CLI.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version.WriteVersion(cmd.OutOrStdout(), cmd.Root().Name())
		},
	}
}

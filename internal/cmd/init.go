package cmd

import (
	"fmt"

	"github.com/dendrascience/wadfs/wad"
	"github.com/spf13/cobra"
)

// NewInitCmd creates and returns the init subcommand for the wadfs CLI.
func NewInitCmd() *cobra.Command {
	var iwad bool

	cmd := &cobra.Command{
		Use:   "init WAD",
		Short: "Create an empty archive",
		Long: `Create an empty WAD archive holding only a header and an empty table.

The file must not exist yet. Archives are PWADs unless --iwad is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			magic := "PWAD"
			if iwad {
				magic = "IWAD"
			}
			if err := wad.Create(args[0], magic, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s\n", magic, args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&iwad, "iwad", false, "Write IWAD magic instead of PWAD")

	return cmd
}

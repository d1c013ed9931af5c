package cmd

import (
	"github.com/spf13/cobra"
)

// NewMkdirCmd creates and returns the mkdir subcommand for the wadfs CLI.
func NewMkdirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkdir WAD PATH...",
		Short: "Create namespaces",
		Long: `Create one or more namespaces in a WAD archive.

Each namespace becomes an empty X_START/X_END marker pair placed after the
last entry of its parent. Namespace names are at most two characters and the
parent must already exist.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, err := openArchive(cmd, args[0], false)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := maybeBackup(cmd, cfg, args[0]); err != nil {
				return err
			}
			for _, p := range args[1:] {
				if err := a.CreateDirectory(dirPath(p)); err != nil {
					return err
				}
			}
			return a.Close()
		},
	}
	addBackupFlag(cmd)
	return cmd
}

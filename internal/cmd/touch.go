package cmd

import (
	"github.com/spf13/cobra"
)

// NewTouchCmd creates and returns the touch subcommand for the wadfs CLI.
func NewTouchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "touch WAD PATH...",
		Short: "Create empty lumps",
		Long: `Create one or more lumps whose content has not been written yet.

The lumps can be filled later, once each, with put or through a mount.`,
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
				if err := a.CreateFile(lumpPath(p)); err != nil {
					return err
				}
			}
			return a.Close()
		},
	}
	addBackupFlag(cmd)
	return cmd
}

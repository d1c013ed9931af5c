package cmd

import (
	"fmt"
	"time"

	"github.com/dendrascience/wadfs/internal/snapshot"
	"github.com/spf13/cobra"
)

// NewBackupCmd creates and returns the backup subcommand for the wadfs CLI.
func NewBackupCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "backup WAD",
		Short: "Save a compressed snapshot of an archive",
		Long: `Save a zstd-compressed copy of a WAD archive together with a BLAKE3 digest
of its bytes. The snapshot is named after the archive and the current time
unless --output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// hold a shared lock so no writer splices mid-copy
			a, _, err := openArchive(cmd, args[0], true)
			if err != nil {
				return err
			}
			defer a.Close()

			dst := output
			if dst == "" {
				dst = snapshot.Name(args[0], cfg.Snapshot.Dir, time.Now())
			}
			d, err := snapshot.Save(args[0], dst, cfg.Snapshot.Level)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", d, dst)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Snapshot path")
	cmd.Flags().String("snapshot-dir", "", "Directory for snapshots (default: next to the archive)")

	return cmd
}

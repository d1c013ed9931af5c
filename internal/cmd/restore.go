package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dendrascience/wadfs/internal/snapshot"
	"github.com/dendrascience/wadfs/wad"
	"github.com/spf13/cobra"
)

// NewRestoreCmd creates and returns the restore subcommand for the wadfs CLI.
func NewRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore SNAPSHOT WAD",
		Short: "Restore an archive from a snapshot",
		Long: `Decompress a snapshot taken by backup over WAD.

The snapshot's content is checked against its recorded BLAKE3 digest and WAD
is replaced only if they match. WAD is locked for the whole restore, so it
fails while another wadfs process has the archive open.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dst := args[0], args[1]

			unlock, err := wad.Lock(dst)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				unlock = func() error { return nil }
			case err != nil:
				return err
			}
			defer unlock()

			d, err := snapshot.Restore(src, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s (blake3 %s)\n", dst, src, d)
			return nil
		},
	}
}

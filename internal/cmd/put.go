package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dendrascience/wadfs/wad"
	"github.com/spf13/cobra"
)

// NewPutCmd creates and returns the put subcommand for the wadfs CLI.
func NewPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put WAD PATH [FILE]",
		Short: "Write a lump's content",
		Long: `Write the content of a lump from FILE, or from standard input when FILE is
omitted or "-".

The lump is created first if it does not exist. Content can be written once;
putting into a lump that already holds data fails.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 3 {
				src = args[2]
			}
			data, err := readSource(cmd, src)
			if err != nil {
				return err
			}

			a, cfg, err := openArchive(cmd, args[0], false)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := maybeBackup(cmd, cfg, args[0]); err != nil {
				return err
			}
			n, err := putLump(a, lumpPath(args[1]), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", n, lumpPath(args[1]))
			return a.Close()
		},
	}
	addBackupFlag(cmd)
	return cmd
}

func readSource(cmd *cobra.Command, src string) ([]byte, error) {
	if src == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(src)
}

func putLump(a *wad.Archive, path string, data []byte) (int, error) {
	if _, err := a.Stat(path); errors.Is(err, wad.ErrNotFound) {
		if err := a.CreateFile(path); err != nil {
			return 0, err
		}
	}
	return a.WriteFile(path, data, len(data), 0)
}

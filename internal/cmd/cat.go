package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/dendrascience/wadfs/wad"
	"github.com/spf13/cobra"
)

// NewCatCmd creates and returns the cat subcommand for the wadfs CLI.
func NewCatCmd() *cobra.Command {
	var offset int64

	cmd := &cobra.Command{
		Use:   "cat WAD PATH",
		Short: "Print a lump's content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openArchive(cmd, args[0], true)
			if err != nil {
				return err
			}
			defer a.Close()
			return runCat(cmd.OutOrStdout(), a, lumpPath(args[1]), offset)
		},
	}

	cmd.Flags().Int64Var(&offset, "offset", 0, "Start this many bytes into the lump")

	return cmd
}

const catChunk = 64 * 1024

func runCat(w io.Writer, a *wad.Archive, path string, offset int64) error {
	if a.IsDirectory(path) {
		return fmt.Errorf("%s: %w", path, wad.ErrIsDirectory)
	}
	info, err := a.Stat(path)
	if err != nil {
		return err
	}
	if info.State == wad.StateEmpty {
		return nil
	}
	buf := make([]byte, catChunk)
	for {
		n, err := a.Read(path, buf, offset)
		if errors.Is(err, wad.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
		offset += int64(n)
	}
}

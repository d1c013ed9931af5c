package cmd

import (
	"fmt"
	"io"

	"github.com/dendrascience/wadfs/wad"
	"github.com/spf13/cobra"
)

// NewLsCmd creates and returns the ls subcommand for the wadfs CLI.
func NewLsCmd() *cobra.Command {
	var (
		recursive bool
		long      bool
	)

	cmd := &cobra.Command{
		Use:   "ls WAD [PATH]",
		Short: "List a directory of an archive",
		Long: `List the entries of a directory inside a WAD archive in table order.

PATH defaults to the root. Directories are printed with a trailing slash.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "/"
			if len(args) == 2 {
				dir = dirPath(args[1])
			}
			a, _, err := openArchive(cmd, args[0], true)
			if err != nil {
				return err
			}
			defer a.Close()
			return runLs(cmd.OutOrStdout(), a, dir, recursive, long)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "R", false, "List subdirectories recursively")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "Show size, offset and content state")

	return cmd
}

func runLs(w io.Writer, a *wad.Archive, dir string, recursive, long bool) error {
	names, err := a.List(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		info, err := a.Stat(dir + name)
		if err != nil {
			return err
		}
		display := name
		if recursive {
			display = info.Path
		} else if info.Dir {
			display += "/"
		}
		if long {
			fmt.Fprintf(w, "%-11s %8d %10d  %s\n", info.State, info.Size, info.Offset, display)
		} else {
			fmt.Fprintln(w, display)
		}
		if recursive && info.Dir {
			if err := runLs(w, a, info.Path, recursive, long); err != nil {
				return err
			}
		}
	}
	return nil
}

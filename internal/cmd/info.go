package cmd

import (
	"fmt"
	"io"

	"github.com/dendrascience/wadfs/internal/snapshot"
	"github.com/dendrascience/wadfs/wad"
	"github.com/spf13/cobra"
)

// NewInfoCmd creates and returns the info subcommand for the wadfs CLI.
func NewInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info WAD",
		Short: "Show header fields and content statistics",
		Long: `Show the header of a WAD archive, counts of directories and lumps by
content state, and a BLAKE3 digest of the whole file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openArchive(cmd, args[0], true)
			if err != nil {
				return err
			}
			defer a.Close()
			return runInfo(cmd.OutOrStdout(), a)
		},
	}
}

type archiveStats struct {
	dirs, maps   int
	written      int
	placeholders int
	empty        int
	bytes        int64
}

func collectStats(a *wad.Archive) (archiveStats, error) {
	var st archiveStats
	err := a.Walk(func(info wad.Info) error {
		switch {
		case info.Path == "/":
		case info.Dir && wad.IsMapGroupName(info.Name):
			st.maps++
		case info.Dir:
			st.dirs++
		case info.State == wad.StateWritten:
			st.written++
			st.bytes += info.Size
		case info.State == wad.StatePlaceholder:
			st.placeholders++
		default:
			st.empty++
		}
		return nil
	})
	return st, err
}

func runInfo(w io.Writer, a *wad.Archive) error {
	st, err := collectStats(a)
	if err != nil {
		return err
	}
	digest, err := snapshot.SumFile(a.Path())
	if err != nil {
		return err
	}
	status := "ok"
	if err := a.Verify(); err != nil {
		status = err.Error()
	}

	fmt.Fprintf(w, "Archive:      %s\n", a.Path())
	fmt.Fprintf(w, "Magic:        %s\n", a.Magic())
	fmt.Fprintf(w, "Descriptors:  %d\n", a.DescriptorCount())
	fmt.Fprintf(w, "Table offset: %d\n", a.TableOffset())
	fmt.Fprintf(w, "Namespaces:   %d\n", st.dirs)
	fmt.Fprintf(w, "Map groups:   %d\n", st.maps)
	fmt.Fprintf(w, "Lumps:        %d written, %d placeholders, %d empty\n", st.written, st.placeholders, st.empty)
	fmt.Fprintf(w, "Content:      %d bytes\n", st.bytes)
	fmt.Fprintf(w, "BLAKE3:       %s\n", digest)
	fmt.Fprintf(w, "Structure:    %s\n", status)
	return nil
}

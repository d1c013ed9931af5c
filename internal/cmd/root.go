package cmd

import (
	"github.com/dendrascience/wadfs/internal/config"
	"github.com/dendrascience/wadfs/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root cobra command for the wadfs CLI.
// It sets up all subcommands, command groups and the shared config flags.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wadfs",
		Short: "wadfs - inspect, edit and mount WAD archives",
		Long: `wadfs reads and edits WAD archives, the lump containers used by Doom-engine games.

Namespaces (X_START/X_END marker pairs) and map groups (E#M# followed by ten
lumps) are presented as directories, lumps as files. New namespaces and lumps
are spliced into the descriptor table in place; a lump's content can be written
exactly once.

Use subcommands to perform different operations:
  - mount: Serve an archive as a FUSE filesystem
  - ls, cat, info: Inspect an archive
  - mkdir, touch, put: Add namespaces and lumps
  - validate: Report structural anomalies
  - init, seed: Create new archives
  - backup, restore: Keep compressed snapshots of an archive`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindFlags(rootCmd.PersistentFlags())

	groupFilesystem := "filesystem"
	groupArchive := "archive"
	groupUtilities := "utilities"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupFilesystem,
		Title: "Filesystem Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupArchive,
		Title: "Archive Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	mountCmd := NewMountCmd()
	mountCmd.GroupID = groupFilesystem
	rootCmd.AddCommand(mountCmd)

	for _, c := range []*cobra.Command{
		NewLsCmd(),
		NewCatCmd(),
		NewInfoCmd(),
		NewMkdirCmd(),
		NewTouchCmd(),
		NewPutCmd(),
	} {
		c.GroupID = groupArchive
		rootCmd.AddCommand(c)
	}

	for _, c := range []*cobra.Command{
		NewValidateCmd(),
		NewInitCmd(),
		NewSeedCmd(),
		NewBackupCmd(),
		NewRestoreCmd(),
		NewVersionCmd(),
	} {
		c.GroupID = groupUtilities
		rootCmd.AddCommand(c)
	}

	return rootCmd
}

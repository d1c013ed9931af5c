package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dendrascience/wadfs/internal/config"
	"github.com/dendrascience/wadfs/internal/snapshot"
	"github.com/dendrascience/wadfs/wad"
	"github.com/spf13/cobra"
)

// loadConfig resolves the config file and flags for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	return cfg, cfg.Logger(cmd.ErrOrStderr()), nil
}

// openArchive opens the WAD at path with the configured strictness.
func openArchive(cmd *cobra.Command, path string, readOnly bool) (*wad.Archive, *config.Config, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	a, err := wad.Open(path, wad.Options{
		Logger:   logger,
		ReadOnly: readOnly,
		Strict:   cfg.Archive.Strict,
	})
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

// addBackupFlag registers --backup on commands that mutate an archive.
func addBackupFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("backup", false, "Save a compressed snapshot of the archive first")
	cmd.Flags().String("snapshot-dir", "", "Directory for snapshots (default: next to the archive)")
}

// maybeBackup snapshots path when --backup was given.
func maybeBackup(cmd *cobra.Command, cfg *config.Config, path string) error {
	if on, _ := cmd.Flags().GetBool("backup"); !on {
		return nil
	}
	dst := snapshot.Name(path, cfg.Snapshot.Dir, time.Now())
	d, err := snapshot.Save(path, dst, cfg.Snapshot.Level)
	if err != nil {
		return fmt.Errorf("backing up %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "snapshot %s (blake3 %s)\n", dst, d)
	return nil
}

// lumpPath makes an archive path absolute.
func lumpPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

// dirPath makes an archive path absolute with a trailing separator.
func dirPath(p string) string {
	p = lumpPath(p)
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

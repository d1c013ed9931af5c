package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/dendrascience/wadfs/version"
	"github.com/dendrascience/wadfs/wadfs"
	"github.com/spf13/cobra"
)

// NewMountCmd creates and returns the mount subcommand for the wadfs CLI.
// It serves an archive at a mountpoint until interrupted.
func NewMountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount WAD MOUNTPOINT",
		Short: "Mount a WAD archive",
		Long: `Mount a WAD archive at the specified mountpoint.

WAD is the path to the archive file.
MOUNTPOINT is the directory where the filesystem will be mounted. It must not
contain the archive, and the archive must not live under it.

Directories and empty lumps can be created in the mounted tree. Data written
to a new lump is committed when the file is closed; written lumps are
read-only.`,
		Args: cobra.ExactArgs(2),
		RunE: runMount,
	}

	cmd.Flags().String("fsname", "wadfs", "Filesystem name reported for the mount")
	cmd.Flags().Bool("allow-other", false, "Allow other users to access the mount")
	cmd.Flags().Bool("read-only", false, "Mount read-only")

	return cmd
}

func runMount(cmd *cobra.Command, args []string) error {
	archivePath := args[0]
	mountpoint := args[1]

	if pathsOverlap(archivePath, mountpoint) {
		return fmt.Errorf("archive %s and mountpoint %s overlap", archivePath, mountpoint)
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger.Info("starting", "version", version.GetFullVersion())

	a, _, err := openArchive(cmd, archivePath, cfg.Mount.ReadOnly)
	if err != nil {
		return err
	}
	defer a.Close()

	filesystem := wadfs.New(a, wadfs.Options{
		Logger: logger.With("mount", mountpoint),
		Uid:    uint32(os.Getuid()),
		Gid:    uint32(os.Getgid()),
	})

	c, err := wadfs.Mount(mountpoint, wadfs.MountOptions{
		FSName:     cfg.Mount.FSName,
		AllowOther: cfg.Mount.AllowOther,
		ReadOnly:   cfg.Mount.ReadOnly,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	served := make(chan struct{})
	go func() {
		select {
		case <-served:
			return
		case <-ctx.Done():
		}
		logger.Info("received signal, unmounting")
		if err := fuse.Unmount(mountpoint); err != nil {
			logger.Warn("unmount failed", "error", err)
		}
	}()

	logger.Info("mounted", "archive", archivePath, "mountpoint", mountpoint, "read_only", cfg.Mount.ReadOnly)
	err = fs.Serve(c, filesystem)
	close(served)
	if err != nil {
		return fmt.Errorf("serving %s: %w", mountpoint, err)
	}
	logger.Info("shutdown complete")
	return nil
}

// pathsOverlap reports whether either path is the other or lies beneath it.
func pathsOverlap(path1, path2 string) bool {
	abs1, err1 := filepath.Abs(path1)
	abs2, err2 := filepath.Abs(path2)
	if err1 != nil || err2 != nil {
		abs1, abs2 = filepath.Clean(path1), filepath.Clean(path2)
	}
	if abs1 == abs2 {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(abs1, abs2+sep) || strings.HasPrefix(abs2, abs1+sep)
}

// Package config loads wadfs settings.
//
// Settings come from three places, later ones winning: built-in defaults, an
// optional YAML file named by --config or WADFS_CONFIG, and command-line flags
// that were explicitly set.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable consulted when --config is empty.
const EnvConfig = "WADFS_CONFIG"

// Config is the full wadfs configuration.
type Config struct {
	// Archive configures how WAD files are opened.
	Archive ArchiveConfig `yaml:"archive"`

	// Mount configures FUSE mounts.
	Mount MountConfig `yaml:"mount"`

	// Log configures diagnostics.
	Log LogConfig `yaml:"log"`

	// Snapshot configures backups taken before mutating commands.
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// ArchiveConfig configures archive loading.
type ArchiveConfig struct {
	// Strict refuses archives with structural anomalies.
	Strict bool `yaml:"strict"`
}

// MountConfig configures FUSE mounts.
type MountConfig struct {
	// FSName is reported as the mount source.
	// Default: wadfs
	FSName string `yaml:"fsname"`

	// AllowOther lets users other than the mounter access the filesystem.
	AllowOther bool `yaml:"allow_other"`

	// ReadOnly mounts without create or write support.
	ReadOnly bool `yaml:"read_only"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is text or json.
	// Default: text
	Format string `yaml:"format"`
}

// SnapshotConfig configures compressed backups.
type SnapshotConfig struct {
	// Dir receives backups. Empty means next to the archive.
	Dir string `yaml:"dir"`

	// Level is the zstd encoder level, 1 (fastest) to 4 (best).
	// Default: 2
	Level int `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Mount: MountConfig{
			FSName: "wadfs",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Snapshot: SnapshotConfig{
			Level: 2,
		},
	}
}

// Load reads path, or the file named by WADFS_CONFIG when path is empty,
// over the defaults. With neither set the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return c.Validate()
}

// Validate checks enumerated and ranged fields.
func (c *Config) Validate() error {
	var errs []error
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Snapshot.Level < 1 || c.Snapshot.Level > 4 {
		errs = append(errs, fmt.Errorf("snapshot.level must be between 1 and 4, got %d", c.Snapshot.Level))
	}
	return errors.Join(errs...)
}

// BindFlags registers flags that override file values. Flags are applied
// by ApplyFlags after the file is loaded.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file (default $"+EnvConfig+")")
	fs.Bool("strict", false, "Refuse archives with structural anomalies")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("log-format", "text", "Log format: text or json")
}

// ApplyFlags copies explicitly set flags from fs into c.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "strict":
			c.Archive.Strict, err = fs.GetBool(f.Name)
		case "log-level":
			c.Log.Level = f.Value.String()
		case "log-format":
			c.Log.Format = f.Value.String()
		case "fsname":
			c.Mount.FSName = f.Value.String()
		case "allow-other":
			c.Mount.AllowOther, err = fs.GetBool(f.Name)
		case "read-only":
			c.Mount.ReadOnly, err = fs.GetBool(f.Name)
		case "snapshot-dir":
			c.Snapshot.Dir = f.Value.String()
		}
	})
	if err != nil {
		return err
	}
	return c.Validate()
}

// FromFlags loads the file named by the --config flag and applies the
// remaining flags over it.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	path, _ := fs.GetString("config")
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Logger builds a logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s)
}

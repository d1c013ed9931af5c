// Package cmd provides the command-line interface implementation for wadfs.
//
// This package contains all the subcommand implementations for the wadfs CLI tool.
// It uses the Cobra library for command structure and Fang for styling.
//
// The package is organized into the following commands:
//   - root: Main command coordinator, command groups and config flags
//   - mount: FUSE filesystem mounting
//   - ls, cat, info: Read-only inspection of an archive
//   - mkdir, touch, put: Mutations, optionally preceded by a snapshot
//   - validate: Structural anomaly reports
//   - init, seed: Archive creation
//   - backup, restore: Compressed snapshots
//
// Each command is implemented as a separate file with its own constructor function
// that returns a *cobra.Command. Archives are opened through the wad package and
// settings are resolved by the config package.
package cmd

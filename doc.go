// Package main provides the wadfs command-line interface.
//
// wadfs reads, edits and mounts WAD archives, the lump containers used by
// Doom-engine games. Namespaces and map groups are presented as directories
// and lumps as files; new entries are spliced into the archive in place.
//
// The main binary supports multiple subcommands:
//   - mount: Serve an archive as a FUSE filesystem
//   - ls, cat, info: Inspect an archive
//   - mkdir, touch, put: Add namespaces and lumps
//   - validate: Report structural anomalies
//   - init, seed: Create archives
//   - backup, restore: Compressed snapshots of an archive
package main

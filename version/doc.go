// Package version provides version information and build metadata for wadfs.
//
// Values come from compile-time variables (Version, Commit, Date) set via
// -ldflags when present, and otherwise from the build info the Go toolchain
// embeds in the binary:
//
//	-ldflags "-X github.com/dendrascience/wadfs/version.Version=v1.0.0 -X github.com/dendrascience/wadfs/version.Commit=abc123"
//
// GetFullVersion is shown by `wadfs --version` and WriteVersion by
// `wadfs version`.
package version

package wad

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for package wad.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// Load errors
	ErrFormat = errors.New("malformed wad archive")

	// Lookup errors
	ErrNotFound     = errors.New("path not found in archive")
	ErrNotDirectory = errors.New("expected directory but got file")
	ErrIsDirectory  = errors.New("expected file, got directory")

	// Mutation errors
	ErrInvalidName     = errors.New("invalid lump name")
	ErrReservedName    = errors.New("name collides with a reserved lump pattern")
	ErrMissingAncestor = errors.New("parent directory does not exist")
	ErrExists          = errors.New("path already exists")
	ErrImmutable       = errors.New("lump content has already been written")
	ErrSizeOverflow    = errors.New("archive would exceed 4 GiB addressable size")

	// ErrBroken is returned by every operation after a splice failed part
	// way through. The header may no longer agree with the table; reopen.
	ErrBroken = errors.New("archive left inconsistent by a failed write")
)

// Anomaly is one structural irregularity found while loading the table.
// Index is the record position in the descriptor table, or -1 for
// header-level problems.
type Anomaly struct {
	Index  int
	Name   string
	Reason string
}

func (a Anomaly) String() string {
	if a.Index < 0 {
		return a.Reason
	}
	return fmt.Sprintf("record %d (%q): %s", a.Index, a.Name, a.Reason)
}

// FormatError enumerates the anomalies tolerated during a best-effort load.
type FormatError struct {
	Path      string
	Anomalies []Anomaly
}

func (e *FormatError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d anomalies", e.Path, len(e.Anomalies))
	for _, a := range e.Anomalies {
		b.WriteString("; ")
		b.WriteString(a.String())
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return ErrFormat }

//go:build unix

package wad

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned when another process holds a conflicting lock on
// the archive.
var ErrLocked = errors.New("archive is locked by another process")

// lockFile takes a non-blocking advisory lock, exclusive for writers and
// shared for readers.
func lockFile(f *os.File, exclusive bool) (func() error, error) {
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	fd := int(f.Fd())
	if err := unix.Flock(fd, how|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("flock: %w", err)
	}
	return func() error {
		return unix.Flock(fd, unix.LOCK_UN)
	}, nil
}

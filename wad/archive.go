package wad

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// ErrReadOnly is returned by mutations on an archive opened read-only.
var ErrReadOnly = errors.New("archive opened read-only")

// Options configures Open.
type Options struct {
	// Logger receives load anomalies and splice events. If nil, logging
	// is discarded.
	Logger *slog.Logger

	// ReadOnly opens the backing file without write access and takes a
	// shared lock instead of an exclusive one.
	ReadOnly bool

	// Strict makes Open fail with a *FormatError when the table contains
	// anomalies instead of loading it best-effort.
	Strict bool
}

// Archive is an opened WAD file. It is not safe for concurrent use: every
// call, reads included, must be serialized by the caller.
type Archive struct {
	path      string
	io        fileIO
	hdr       header
	tree      *tree
	index     *index
	anomalies []Anomaly
	log       *slog.Logger
	readOnly  bool
	unlock    func() error

	// broken is set once a splice fails part way through.
	broken error
}

// Open loads the archive at path.
func Open(path string, opts Options) (*Archive, error) {
	flag := os.O_RDWR
	if opts.ReadOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	unlock, err := lockFile(f, !opts.ReadOnly)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &Archive{
		path:     path,
		io:       fileIO{f: f},
		log:      logger.With("archive", path),
		readOnly: opts.ReadOnly,
		unlock:   unlock,
	}
	if err := a.load(); err != nil {
		a.Close()
		return nil, err
	}
	if opts.Strict {
		if err := a.Verify(); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Lock takes the exclusive lock a writer would hold on path without loading
// the table, so callers can replace a damaged archive while keeping writers
// out. The returned func releases the lock.
func Lock(path string) (func() error, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	unlock, err := lockFile(f, true)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return func() error {
		return errors.Join(unlock(), f.Close())
	}, nil
}

func (a *Archive) load() error {
	h, err := a.io.readHeader()
	if err != nil {
		return err
	}
	size, err := a.io.size()
	if err != nil {
		return err
	}
	end := int64(h.TableOffset) + int64(h.Count)*descriptorSize
	if int64(h.TableOffset) < headerSize || end > size {
		return fmt.Errorf("%w: descriptor table [%d, %d) outside file of %d bytes", ErrFormat, h.TableOffset, end, size)
	}

	raw := make([]byte, int(h.Count)*descriptorSize)
	if err := a.io.readFull(raw, int64(h.TableOffset)); err != nil {
		return fmt.Errorf("%w: descriptor table: %w", ErrFormat, err)
	}
	l := parse(decodeTable(raw), size)

	a.hdr = h
	a.tree = l.tree
	a.index = l.index
	a.anomalies = l.anomalies
	if m := string(h.Magic[:]); m != "IWAD" && m != "PWAD" {
		a.anomalies = append(a.anomalies, Anomaly{Index: -1, Reason: fmt.Sprintf("unknown magic %q", m)})
	}
	for _, an := range a.anomalies {
		a.log.Warn("tolerating malformed descriptor", "anomaly", an.String())
	}
	a.log.Debug("archive loaded", "magic", a.Magic(), "descriptors", h.Count, "paths", a.index.len())
	return nil
}

// Close releases the lock and the backing file. In-memory state is
// discarded; the archive must not be used afterwards.
func (a *Archive) Close() error {
	var errs []error
	if a.unlock != nil {
		errs = append(errs, a.unlock())
		a.unlock = nil
	}
	if a.io.f != nil {
		errs = append(errs, a.io.f.Close())
		a.io.f = nil
	}
	return errors.Join(errs...)
}

// Verify reports the anomalies tolerated during load as a *FormatError, or
// nil for a well-formed table.
func (a *Archive) Verify() error {
	if len(a.anomalies) == 0 {
		return nil
	}
	return &FormatError{Path: a.path, Anomalies: slices.Clone(a.anomalies)}
}

// Path returns the backing file path.
func (a *Archive) Path() string { return a.path }

// Magic returns the four-byte format tag, normally IWAD or PWAD.
func (a *Archive) Magic() string { return string(a.hdr.Magic[:]) }

// DescriptorCount returns the number of records in the descriptor table.
func (a *Archive) DescriptorCount() int { return int(a.hdr.Count) }

// TableOffset returns the byte offset of the descriptor table.
func (a *Archive) TableOffset() int64 { return int64(a.hdr.TableOffset) }

func (a *Archive) usable() error {
	if a.broken != nil {
		return fmt.Errorf("%w: %w", ErrBroken, a.broken)
	}
	if a.io.f == nil {
		return os.ErrClosed
	}
	return nil
}

func (a *Archive) writable() error {
	if err := a.usable(); err != nil {
		return err
	}
	if a.readOnly {
		return ErrReadOnly
	}
	return nil
}

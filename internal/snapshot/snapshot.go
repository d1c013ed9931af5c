// Package snapshot keeps compressed backups of WAD archives.
//
// Mutations splice the descriptor table in place, so a failed write can leave
// an archive unreadable. A snapshot is a zstd-compressed copy of the archive
// plus a sidecar file holding the BLAKE3 digest of the uncompressed bytes.
// Restore refuses to overwrite anything when the digest does not match.
package snapshot

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// Ext is appended to backup file names.
const Ext = ".zst"

// DigestExt names the sidecar that holds a backup's digest.
const DigestExt = ".b3"

var (
	// ErrDigestMismatch is returned when restored bytes do not hash to the
	// digest recorded at backup time.
	ErrDigestMismatch = errors.New("snapshot digest mismatch")

	// ErrNoDigest is returned when a backup has no readable sidecar.
	ErrNoDigest = errors.New("snapshot digest missing")
)

// Digest is a BLAKE3-256 sum.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest decodes a hex digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return d, fmt.Errorf("parsing digest: %w", err)
	}
	if len(b) != len(d) {
		return d, fmt.Errorf("parsing digest: want %d bytes, got %d", len(d), len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Sum hashes everything read from r.
func Sum(r io.Reader) (Digest, error) {
	var d Digest
	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return d, err
	}
	copy(d[:], h.Sum(nil))
	return d, nil
}

// SumFile hashes the file at path.
func SumFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()
	return Sum(f)
}

// Name returns the backup path for archive, placed in dir or next to the
// archive when dir is empty.
func Name(archive, dir string, now time.Time) string {
	if dir == "" {
		dir = filepath.Dir(archive)
	}
	stamp := now.UTC().Format("20060102T150405Z")
	return filepath.Join(dir, filepath.Base(archive)+"."+stamp+Ext)
}

// Save writes a compressed copy of src to dst and records its digest in
// dst+DigestExt. level ranges from 1 (fastest) to 4 (best compression).
func Save(src, dst string, level int) (Digest, error) {
	in, err := os.Open(src)
	if err != nil {
		return Digest{}, err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".snapshot-*")
	if err != nil {
		return Digest{}, fmt.Errorf("creating backup: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(zstdLevel(level))))
	if err != nil {
		return Digest{}, fmt.Errorf("creating zstd encoder: %w", err)
	}
	h := blake3.New()
	if _, err := io.Copy(enc, io.TeeReader(bufio.NewReader(in), h)); err != nil {
		enc.Close()
		return Digest{}, fmt.Errorf("compressing %s: %w", src, err)
	}
	if err := enc.Close(); err != nil {
		return Digest{}, fmt.Errorf("close zstd encoder: %w", err)
	}
	if err := finish(tmp, modeOf(in)); err != nil {
		return Digest{}, err
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	line := d.String() + "  " + filepath.Base(src) + "\n"
	if err := os.WriteFile(dst+DigestExt, []byte(line), 0o644); err != nil {
		return Digest{}, fmt.Errorf("writing digest: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return Digest{}, fmt.Errorf("moving backup into place: %w", err)
	}
	return d, nil
}

// ReadDigest returns the digest recorded for the backup at path.
func ReadDigest(path string) (Digest, error) {
	data, err := os.ReadFile(path + DigestExt)
	if err != nil {
		return Digest{}, fmt.Errorf("%w: %w", ErrNoDigest, err)
	}
	field, _, _ := strings.Cut(string(data), " ")
	return ParseDigest(field)
}

// Restore decompresses the backup at src into dst after checking it against
// the recorded digest. dst is replaced atomically and only on success.
func Restore(src, dst string) (Digest, error) {
	want, err := ReadDigest(src)
	if err != nil {
		return Digest{}, err
	}

	in, err := os.Open(src)
	if err != nil {
		return Digest{}, err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return Digest{}, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".restore-*")
	if err != nil {
		return Digest{}, fmt.Errorf("creating restore target: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	h := blake3.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), dec); err != nil {
		return Digest{}, fmt.Errorf("decompressing %s: %w", src, err)
	}
	var got Digest
	copy(got[:], h.Sum(nil))
	if got != want {
		return got, fmt.Errorf("%w: %s recorded %s, content hashes to %s", ErrDigestMismatch, src, want, got)
	}

	mode := modeOf(in)
	if fi, err := os.Stat(dst); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := finish(tmp, mode); err != nil {
		return Digest{}, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return Digest{}, fmt.Errorf("replacing %s: %w", dst, err)
	}
	return got, nil
}

// finish gives a temp file its final permissions and flushes it. Temp files
// are created 0600.
func finish(tmp *os.File, mode os.FileMode) error {
	if err := tmp.Chmod(mode); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	return tmp.Close()
}

// modeOf returns the permission bits of an open file, 0644 if unknown.
func modeOf(f *os.File) os.FileMode {
	fi, err := f.Stat()
	if err != nil {
		return 0o644
	}
	return fi.Mode().Perm()
}

// zstdLevel maps the 1..4 encoder levels onto zstd's numeric scale.
func zstdLevel(level int) int {
	switch {
	case level <= 1:
		return 1
	case level == 2:
		return 3
	case level == 3:
		return 7
	}
	return 11
}

package wad

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
)

// Lump is one record for Encode. Markers are lumps with no data.
type Lump struct {
	Name string
	Data []byte
}

// Encode writes a complete archive to w: header, lump data in order, then
// the descriptor table. Empty lumps get offset 0 and length 0.
func Encode(w io.Writer, magic string, lumps []Lump) error {
	if len(magic) != 4 {
		return fmt.Errorf("%w: magic %q must be 4 bytes", ErrInvalidName, magic)
	}
	descs := make([]Descriptor, len(lumps))
	off := uint64(headerSize)
	for i, l := range lumps {
		if len(l.Name) > MaxNameLength {
			return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, l.Name, MaxNameLength)
		}
		descs[i].Name = l.Name
		if len(l.Data) == 0 {
			continue
		}
		descs[i].Offset = uint32(off)
		descs[i].Length = uint32(len(l.Data))
		off += uint64(len(l.Data))
	}
	if off > math.MaxUint32 {
		return ErrSizeOverflow
	}

	var h header
	copy(h.Magic[:], magic)
	h.Count = uint32(len(lumps))
	h.TableOffset = uint32(off)

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(h.encode()); err != nil {
		return err
	}
	for _, l := range lumps {
		if _, err := bw.Write(l.Data); err != nil {
			return err
		}
	}
	if _, err := bw.Write(encodeTable(descs)); err != nil {
		return err
	}
	return bw.Flush()
}

// Create writes a new archive file at path, failing if it already exists.
func Create(path, magic string, lumps []Lump) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	if err := Encode(f, magic, lumps); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

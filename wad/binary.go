package wad

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	headerSize     = 12
	descriptorSize = 16
	nameSize       = 8

	countFieldOffset = 4
	tableFieldOffset = 8
)

// fileIO is the only code that touches the backing file. All access is
// positional so no operation depends on a shared cursor.
type fileIO struct {
	f *os.File
}

func (b fileIO) size() (int64, error) {
	info, err := b.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", b.f.Name(), err)
	}
	return info.Size(), nil
}

// readFull reads exactly len(p) bytes at off.
func (b fileIO) readFull(p []byte, off int64) error {
	n, err := b.f.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("read %d bytes at %d: %w", len(p), off, err)
}

// readSome reads up to len(p) bytes at off and reports a short read only
// through the returned count.
func (b fileIO) readSome(p []byte, off int64) (int, error) {
	n, err := b.f.ReadAt(p, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("read at %d: %w", off, err)
	}
	return n, nil
}

func (b fileIO) readTail(off int64) ([]byte, error) {
	end, err := b.size()
	if err != nil {
		return nil, err
	}
	if off > end {
		return nil, fmt.Errorf("%w: offset %d beyond end of file %d", ErrFormat, off, end)
	}
	buf := make([]byte, end-off)
	if err := b.readFull(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}

func (b fileIO) writeAt(p []byte, off int64) error {
	if _, err := b.f.WriteAt(p, off); err != nil {
		return fmt.Errorf("write %d bytes at %d: %w", len(p), off, err)
	}
	return nil
}

func (b fileIO) readUint32(off int64) (uint32, error) {
	var buf [4]byte
	if err := b.readFull(buf[:], off); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (b fileIO) writeUint32(v uint32, off int64) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return b.writeAt(buf[:], off)
}

func (b fileIO) sync() error {
	if err := b.f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", b.f.Name(), err)
	}
	return nil
}

type header struct {
	Magic       [4]byte
	Count       uint32
	TableOffset uint32
}

func (b fileIO) readHeader() (header, error) {
	var h header
	var buf [headerSize]byte
	if err := b.readFull(buf[:], 0); err != nil {
		return h, fmt.Errorf("%w: header: %w", ErrFormat, err)
	}
	copy(h.Magic[:], buf[0:4])
	h.Count = binary.LittleEndian.Uint32(buf[countFieldOffset:])
	h.TableOffset = binary.LittleEndian.Uint32(buf[tableFieldOffset:])
	return h, nil
}

func (h header) encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[countFieldOffset:], h.Count)
	binary.LittleEndian.PutUint32(buf[tableFieldOffset:], h.TableOffset)
	return buf
}

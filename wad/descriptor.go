package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"regexp"
	"strings"
)

// PlaceholderLength marks a descriptor whose lump was created but never
// written.
const PlaceholderLength = 0xFFFFFFFF

// MapGroupArity is the number of fixed-role lumps following a map marker.
const MapGroupArity = 10

const (
	startSuffix = "_START"
	endSuffix   = "_END"

	// MaxNameLength is the width of the on-disk name field.
	MaxNameLength = nameSize
	// MaxDirNameLength leaves room for the _START suffix in the name field.
	MaxDirNameLength = nameSize - len(startSuffix)
)

var mapGroupPattern = regexp.MustCompile(`^E\dM\d$`)

// Descriptor is one 16-byte record of the descriptor table.
type Descriptor struct {
	Offset uint32
	Length uint32
	Name   string
}

func (d Descriptor) encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], d.Offset)
	binary.LittleEndian.PutUint32(dst[4:8], d.Length)
	clear(dst[8:descriptorSize])
	copy(dst[8:descriptorSize], d.Name)
}

func decodeDescriptor(src []byte) Descriptor {
	return Descriptor{
		Offset: binary.LittleEndian.Uint32(src[0:4]),
		Length: binary.LittleEndian.Uint32(src[4:8]),
		Name:   decodeName(src[8:descriptorSize]),
	}
}

// decodeName stops at the first NUL; bytes after it are undefined.
func decodeName(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw)
}

func decodeTable(raw []byte) []Descriptor {
	descs := make([]Descriptor, 0, len(raw)/descriptorSize)
	for off := 0; off+descriptorSize <= len(raw); off += descriptorSize {
		descs = append(descs, decodeDescriptor(raw[off:off+descriptorSize]))
	}
	return descs
}

func encodeTable(descs []Descriptor) []byte {
	raw := make([]byte, len(descs)*descriptorSize)
	for i, d := range descs {
		d.encode(raw[i*descriptorSize:])
	}
	return raw
}

// IsMapGroupName reports whether name denotes a map marker such as E1M1.
func IsMapGroupName(name string) bool {
	return mapGroupPattern.MatchString(name)
}

func isStartMarker(name string) bool { return strings.HasSuffix(name, startSuffix) }

func isEndMarker(name string) bool { return strings.HasSuffix(name, endSuffix) }

func startMarker(dir string) string { return dir + startSuffix }

func endMarker(dir string) string { return dir + endSuffix }

// validateName checks that name fits the name field and is printable ASCII.
func validateName(name string, max int) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if len(name) > max {
		return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, name, max)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= ' ' || c > '~' || c == '/' {
			return fmt.Errorf("%w: %q contains byte 0x%02x", ErrInvalidName, name, c)
		}
	}
	return nil
}

package wad

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// splitPath separates an absolute path into the directory key of its parent
// and its final segment. A trailing separator is ignored.
func splitPath(path string) (parent, name string, err error) {
	if !strings.HasPrefix(path, "/") {
		return "", "", fmt.Errorf("%w: %q is not absolute", ErrInvalidName, path)
	}
	rest := strings.TrimSuffix(path[1:], "/")
	if rest == "" {
		return "", "", fmt.Errorf("%w: cannot create the root", ErrInvalidName)
	}
	segments := strings.Split(rest, "/")
	for _, s := range segments {
		if s == "" {
			return "", "", fmt.Errorf("%w: empty segment in %q", ErrInvalidName, path)
		}
	}
	name = segments[len(segments)-1]
	parent = "/"
	if len(segments) > 1 {
		parent = "/" + strings.Join(segments[:len(segments)-1], "/") + "/"
	}
	return parent, name, nil
}

// resolveParent checks every ancestor of a new node. Map groups have a fixed
// layout, so nothing may be created inside one.
func (a *Archive) resolveParent(parent string) (*Entry, error) {
	current := "/"
	for _, seg := range strings.Split(strings.Trim(parent, "/"), "/") {
		if seg == "" {
			continue
		}
		if IsMapGroupName(seg) {
			return nil, fmt.Errorf("%w: cannot create inside map group %s", ErrReservedName, seg)
		}
		current += seg + "/"
		e, ok := a.index.lookup(current)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingAncestor, current)
		}
		if !e.Dir {
			return nil, fmt.Errorf("%w: %s", ErrNotDirectory, current)
		}
	}
	e, _ := a.index.lookup(parent)
	return e, nil
}

func (a *Archive) exists(parent, name string) bool {
	if _, ok := a.index.lookup(parent + name); ok {
		return true
	}
	_, ok := a.index.lookup(parent + name + "/")
	return ok
}

// CreateDirectory adds an empty namespace, written on disk as a start and
// end marker pair. Namespace names are at most two characters so that the
// marker fits the name field.
func (a *Archive) CreateDirectory(path string) error {
	if err := a.writable(); err != nil {
		return err
	}
	parentKey, name, err := splitPath(path)
	if err != nil {
		return err
	}
	parent, err := a.resolveParent(parentKey)
	if err != nil {
		return err
	}
	if err := validateName(name, MaxDirNameLength); err != nil {
		return err
	}
	if a.exists(parentKey, name) {
		return fmt.Errorf("%w: %s", ErrExists, parentKey+name)
	}

	start := Descriptor{Name: startMarker(name)}
	end := Descriptor{Name: endMarker(name)}
	if err := a.splice(parent, start, end); err != nil {
		return err
	}

	dirPath := parentKey + name + "/"
	id := a.tree.add(parent.node, dirPath)
	a.index.insert(dirPath, newEntry(start, true, id))
	a.log.Debug("directory created", "path", dirPath)
	return nil
}

// CreateFile adds an unwritten lump. Its content is assigned by exactly one
// later WriteFile.
func (a *Archive) CreateFile(path string) error {
	if err := a.writable(); err != nil {
		return err
	}
	parentKey, name, err := splitPath(path)
	if err != nil {
		return err
	}
	parent, err := a.resolveParent(parentKey)
	if err != nil {
		return err
	}
	if err := validateName(name, MaxNameLength); err != nil {
		return err
	}
	if IsMapGroupName(name) || isStartMarker(name) || isEndMarker(name) {
		return fmt.Errorf("%w: %s", ErrReservedName, name)
	}
	if a.exists(parentKey, name) {
		return fmt.Errorf("%w: %s", ErrExists, parentKey+name)
	}

	rec := Descriptor{Length: PlaceholderLength, Name: name}
	if err := a.splice(parent, rec); err != nil {
		return err
	}

	filePath := parentKey + name
	id := a.tree.add(parent.node, filePath)
	a.index.insert(filePath, newEntry(rec, false, id))
	a.log.Debug("file created", "path", filePath)
	return nil
}

// WriteFile assigns content to a file that has none yet. It writes
// min(length, len(buf)-offset) bytes taken from buf[offset:] and returns the
// count. Content is write-once: a written file yields ErrImmutable.
func (a *Archive) WriteFile(path string, buf []byte, length, offset int) (int, error) {
	if err := a.writable(); err != nil {
		return 0, err
	}
	if a.IsDirectory(path) {
		return 0, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	e, ok := a.index.lookup(path)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if e.Dir {
		return 0, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	if e.State == StateWritten {
		return 0, fmt.Errorf("%w: %s", ErrImmutable, path)
	}
	if offset < 0 || offset > len(buf) {
		return 0, fmt.Errorf("write %s: offset %d outside buffer of %d bytes", path, offset, len(buf))
	}
	n := min(length, len(buf)-offset)
	if n <= 0 {
		return 0, nil
	}

	tableOff := a.hdr.TableOffset
	if uint64(tableOff)+uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: writing %d bytes to %s", ErrSizeOverflow, n, path)
	}
	tail, descs, err := a.readTable()
	if err != nil {
		return 0, err
	}
	sp, ok := parse(descs, math.MaxInt64).spans[path]
	if !ok {
		return 0, a.fail(fmt.Errorf("%s is indexed but absent from the on-disk table", path))
	}
	patched := Descriptor{Offset: tableOff, Length: uint32(n), Name: descs[sp.first].Name}
	patched.encode(tail[sp.first*descriptorSize:])

	out := make([]byte, 0, n+len(tail))
	out = append(out, buf[offset:offset+n]...)
	out = append(out, tail...)

	// Past this point a failure leaves header and table disagreeing.
	if err := a.io.writeAt(out, int64(tableOff)); err != nil {
		return 0, a.fail(err)
	}
	newTable := tableOff + uint32(n)
	if err := a.io.writeUint32(newTable, tableFieldOffset); err != nil {
		return 0, a.fail(err)
	}
	if err := a.io.sync(); err != nil {
		return 0, a.fail(err)
	}

	a.hdr.TableOffset = newTable
	e.Offset = tableOff
	e.length = uint32(n)
	e.State = StateWritten
	a.log.Debug("file written", "path", path, "offset", tableOff, "length", n)
	return n, nil
}

// splice inserts recs into the descriptor table right after the records
// of the parent's last child, or right after the parent's start marker when
// it has no children yet. Everything following the insertion point is
// buffered and rewritten behind the new records.
func (a *Archive) splice(parent *Entry, recs ...Descriptor) error {
	if uint64(a.hdr.Count)+uint64(len(recs)) > math.MaxUint32 {
		return fmt.Errorf("%w: descriptor count", ErrSizeOverflow)
	}
	tableOff := int64(a.hdr.TableOffset)
	tail, descs, err := a.readTable()
	if err != nil {
		return err
	}
	l := parse(descs, math.MaxInt64)
	at, err := a.insertionIndex(l, parent.node)
	if err != nil {
		return err
	}

	insertAt := at * descriptorSize
	out := make([]byte, 0, len(recs)*descriptorSize+len(tail)-insertAt)
	out = append(out, encodeTable(recs)...)
	out = append(out, tail[insertAt:]...)
	count := a.hdr.Count + uint32(len(recs))

	// Past this point a failure leaves header and table disagreeing.
	if err := a.io.writeAt(out, tableOff+int64(insertAt)); err != nil {
		return a.fail(err)
	}
	if err := a.io.writeUint32(count, countFieldOffset); err != nil {
		return a.fail(err)
	}
	if err := a.io.sync(); err != nil {
		return a.fail(err)
	}
	a.hdr.Count = count
	a.log.Debug("descriptors spliced", "at", at, "records", len(recs), "count", count)
	return nil
}

// insertionIndex finds the record index new children of parent go to. The
// anchor is the parent's last child, else the parent's own start marker.
func (a *Archive) insertionIndex(l *layout, parent NodeID) (int, error) {
	anchor := parent
	if last, ok := a.tree.lastChild(parent); ok {
		anchor = last
	} else if parent == rootID {
		return 0, nil
	}
	path := a.tree.path(anchor)
	sp, ok := l.spans[path]
	if !ok {
		return 0, a.fail(fmt.Errorf("%s is indexed but absent from the on-disk table", path))
	}
	if anchor == parent {
		return sp.first + 1, nil
	}
	if l.unclosed[path] {
		return 0, fmt.Errorf("%w: %s is not closed on disk, new entries after it would be read back inside it", ErrFormat, path)
	}
	return sp.last + 1, nil
}

// readTable returns everything from the table offset to the end of the file
// and the records it holds. A file that shrank while open poisons the archive.
func (a *Archive) readTable() ([]byte, []Descriptor, error) {
	tail, err := a.io.readTail(int64(a.hdr.TableOffset))
	if errors.Is(err, ErrFormat) {
		return nil, nil, a.fail(err)
	}
	if err != nil {
		return nil, nil, err
	}
	need := int(a.hdr.Count) * descriptorSize
	if len(tail) < need {
		return nil, nil, a.fail(fmt.Errorf("%w: descriptor table needs %d bytes, file has %d past offset %d",
			ErrFormat, need, len(tail), a.hdr.TableOffset))
	}
	return tail, decodeTable(tail[:need]), nil
}

// fail poisons the archive; the caller has to reopen it.
func (a *Archive) fail(err error) error {
	a.broken = err
	a.log.Error("archive left inconsistent", "error", err)
	return fmt.Errorf("%w: %w", ErrBroken, err)
}

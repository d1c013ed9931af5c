package wad

import (
	"fmt"
	"strings"
)

// Info describes one path for attribute lookups.
type Info struct {
	Path   string
	Name   string
	Dir    bool
	Size   int64
	Offset int64
	State  ContentState
}

func dirKey(path string) string {
	if len(path) > 1 && !strings.HasSuffix(path, "/") {
		return path + "/"
	}
	return path
}

// IsContent reports whether path names a lump with a nonzero on-disk length,
// written or still a placeholder.
func (a *Archive) IsContent(path string) bool {
	e, ok := a.index.lookup(path)
	return ok && e.hasContent()
}

// IsDirectory reports whether path names a directory. A trailing separator
// is optional.
func (a *Archive) IsDirectory(path string) bool {
	e, ok := a.index.lookup(dirKey(path))
	return ok && e.Dir
}

// Size returns the content length of a lump. Placeholders report zero.
func (a *Archive) Size(path string) (int64, error) {
	e, ok := a.index.lookup(path)
	if !ok || !e.hasContent() {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return int64(e.Length()), nil
}

// Read copies up to len(p) bytes of the lump at path, starting offset bytes
// into its content. Reading at or past the end returns 0 and no error.
func (a *Archive) Read(path string, p []byte, offset int64) (int, error) {
	if err := a.usable(); err != nil {
		return 0, err
	}
	e, ok := a.index.lookup(path)
	if !ok || !e.hasContent() {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if offset < 0 {
		return 0, fmt.Errorf("read %s: negative offset %d", path, offset)
	}
	length := int64(e.Length())
	if offset >= length {
		return 0, nil
	}
	n := min(int64(len(p)), length-offset)
	return a.io.readSome(p[:n], int64(e.Offset)+offset)
}

// List returns the child names of a directory in descriptor order.
func (a *Archive) List(path string) ([]string, error) {
	key := dirKey(path)
	e, ok := a.index.lookup(key)
	if !ok || !e.Dir {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	children := a.tree.children(e.node)
	names := make([]string, 0, len(children))
	for _, id := range children {
		name := strings.TrimPrefix(a.tree.path(id), key)
		names = append(names, strings.Trim(name, "/"))
	}
	return names, nil
}

// Stat looks path up as a file first and then as a directory.
func (a *Archive) Stat(path string) (Info, error) {
	e, ok := a.index.lookup(path)
	if !ok {
		path = dirKey(path)
		e, ok = a.index.lookup(path)
	}
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	name := strings.Trim(path[strings.LastIndex(strings.TrimSuffix(path, "/"), "/")+1:], "/")
	return Info{
		Path:   path,
		Name:   name,
		Dir:    e.Dir,
		Size:   int64(e.Length()),
		Offset: int64(e.Offset),
		State:  e.State,
	}, nil
}

// Walk visits every path depth-first in descriptor order, starting at the
// root. Returning a non-nil error from fn stops the walk.
func (a *Archive) Walk(fn func(Info) error) error {
	return a.walk(rootID, fn)
}

func (a *Archive) walk(id NodeID, fn func(Info) error) error {
	info, err := a.Stat(a.tree.path(id))
	if err != nil {
		return err
	}
	if err := fn(info); err != nil {
		return err
	}
	for _, c := range a.tree.children(id) {
		if err := a.walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

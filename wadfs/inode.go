package wadfs

import (
	"sync"

	"github.com/taigrr/colorhash"
)

// RootInode is reserved for the mount root.
const RootInode uint64 = 1

// inodeSpace bounds hashed inode numbers; collisions probe upwards.
const inodeSpace = 1 << 31

// Inodes hands out one stable inode number per archive path. Numbers are
// derived from a hash of the path so that remounting the same archive
// yields the same numbers for the same lumps.
type Inodes struct {
	mu     sync.Mutex
	byPath map[string]uint64
	used   map[uint64]string
}

// NewInodes returns a registry with only the root assigned.
func NewInodes() *Inodes {
	return &Inodes{
		byPath: map[string]uint64{"/": RootInode},
		used:   map[uint64]string{RootInode: "/"},
	}
}

// For returns the inode for path, assigning one on first use.
func (r *Inodes) For(path string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ino, ok := r.byPath[path]; ok {
		return ino
	}
	ino := uint64(colorhash.HashString(path))%inodeSpace + RootInode + 1
	for {
		if _, taken := r.used[ino]; !taken {
			break
		}
		ino++
	}
	r.byPath[path] = ino
	r.used[ino] = path
	return ino
}

// Path returns the path an inode was assigned to.
func (r *Inodes) Path(ino uint64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.used[ino]
	return p, ok
}

// Len returns the number of assigned inodes, root included.
func (r *Inodes) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPath)
}

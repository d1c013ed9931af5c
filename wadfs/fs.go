package wadfs

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/dendrascience/wadfs/wad"
)

// Options configures the filesystem.
type Options struct {
	// Logger receives per-request diagnostics. If nil, logging is discarded.
	Logger *slog.Logger

	// Uid and Gid own every node.
	Uid, Gid uint32
}

// FS exposes one opened archive through FUSE. The archive engine is not
// safe for concurrent use, so every call into it holds mu.
type FS struct {
	archive *wad.Archive
	inodes  *Inodes
	log     *slog.Logger
	uid     uint32
	gid     uint32
	mounted time.Time
	mu      sync.Mutex
}

// New wraps an opened archive. The caller keeps ownership of a and closes
// it after the filesystem is unmounted.
func New(a *wad.Archive, opts Options) *FS {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FS{
		archive: a,
		inodes:  NewInodes(),
		log:     logger,
		uid:     opts.Uid,
		gid:     opts.Gid,
		mounted: time.Now(),
	}
}

var _ fs.FS = (*FS)(nil)

// Root returns the root directory node
func (f *FS) Root() (fs.Node, error) {
	return &Dir{fs: f, path: "/"}, nil
}

func (f *FS) stat(path string) (wad.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.archive.Stat(path)
}

func (f *FS) setTimes(a *fuse.Attr) {
	a.Mtime = f.mounted
	a.Ctime = f.mounted
	a.Atime = f.mounted
	a.Uid = f.uid
	a.Gid = f.gid
}

// errno translates engine errors into the errno the kernel reports.
func errno(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wad.ErrNotFound), errors.Is(err, wad.ErrMissingAncestor):
		return fuse.Errno(syscall.ENOENT)
	case errors.Is(err, wad.ErrExists):
		return fuse.Errno(syscall.EEXIST)
	case errors.Is(err, wad.ErrIsDirectory):
		return fuse.Errno(syscall.EISDIR)
	case errors.Is(err, wad.ErrNotDirectory):
		return fuse.Errno(syscall.ENOTDIR)
	case errors.Is(err, wad.ErrInvalidName):
		return fuse.Errno(syscall.EINVAL)
	case errors.Is(err, wad.ErrReservedName), errors.Is(err, wad.ErrImmutable):
		return fuse.Errno(syscall.EPERM)
	case errors.Is(err, wad.ErrReadOnly):
		return fuse.Errno(syscall.EROFS)
	case errors.Is(err, wad.ErrSizeOverflow):
		return fuse.Errno(syscall.EFBIG)
	}
	return fuse.Errno(syscall.EIO)
}

// Dir is a namespace, map group or the root. path always ends in "/".
type Dir struct {
	fs   *FS
	path string
}

var (
	_ fs.Node               = (*Dir)(nil)
	_ fs.NodeStringLookuper = (*Dir)(nil)
	_ fs.HandleReadDirAller = (*Dir)(nil)
	_ fs.NodeMkdirer        = (*Dir)(nil)
	_ fs.NodeMknoder        = (*Dir)(nil)
	_ fs.NodeCreater        = (*Dir)(nil)
)

// Attr returns directory attributes
func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = d.fs.inodes.For(d.path)
	a.Mode = os.ModeDir | 0o755
	a.Nlink = 2
	a.Size = 4096
	d.fs.setTimes(a)
	return nil
}

// Lookup resolves a child name to a file or directory node
func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	info, err := d.fs.stat(d.path + name)
	if err != nil {
		return nil, fuse.Errno(syscall.ENOENT)
	}
	if info.Dir {
		return &Dir{fs: d.fs, path: info.Path}, nil
	}
	return &File{fs: d.fs, path: info.Path}, nil
}

// ReadDirAll lists directory contents in archive order
func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	names, err := d.fs.archive.List(d.path)
	if err != nil {
		return nil, errno(err)
	}
	dirents := []fuse.Dirent{
		{Inode: d.fs.inodes.For(d.path), Name: ".", Type: fuse.DT_Dir},
		{Inode: d.fs.inodes.For(parentDir(d.path)), Name: "..", Type: fuse.DT_Dir},
	}
	for _, name := range names {
		info, err := d.fs.archive.Stat(d.path + name)
		if err != nil {
			return nil, errno(err)
		}
		typ := fuse.DT_File
		if info.Dir {
			typ = fuse.DT_Dir
		}
		dirents = append(dirents, fuse.Dirent{
			Inode: d.fs.inodes.For(info.Path),
			Name:  name,
			Type:  typ,
		})
	}
	return dirents, nil
}

// Mkdir creates a namespace
func (d *Dir) Mkdir(ctx context.Context, req *fuse.MkdirRequest) (fs.Node, error) {
	path := d.path + req.Name + "/"
	d.fs.mu.Lock()
	err := d.fs.archive.CreateDirectory(path)
	d.fs.mu.Unlock()
	if err != nil {
		d.fs.log.Debug("mkdir rejected", "path", path, "error", err)
		return nil, errno(err)
	}
	return &Dir{fs: d.fs, path: path}, nil
}

// Mknod creates an unwritten lump. Only regular files are supported.
func (d *Dir) Mknod(ctx context.Context, req *fuse.MknodRequest) (fs.Node, error) {
	if req.Mode&os.ModeType != 0 {
		return nil, fuse.Errno(syscall.EPERM)
	}
	return d.createFile(req.Name)
}

// Create creates an unwritten lump and opens it
func (d *Dir) Create(ctx context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fs.Node, fs.Handle, error) {
	file, err := d.createFile(req.Name)
	if err != nil {
		return nil, nil, err
	}
	if err := file.Attr(ctx, &resp.Attr); err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

func (d *Dir) createFile(name string) (*File, error) {
	path := d.path + name
	d.fs.mu.Lock()
	err := d.fs.archive.CreateFile(path)
	d.fs.mu.Unlock()
	if err != nil {
		d.fs.log.Debug("create rejected", "path", path, "error", err)
		return nil, errno(err)
	}
	return &File{fs: d.fs, path: path}, nil
}

func parentDir(path string) string {
	if path == "/" {
		return "/"
	}
	trimmed := path[:len(path)-1]
	for i := len(trimmed) - 1; i >= 0; i-- {
		if trimmed[i] == '/' {
			return trimmed[:i+1]
		}
	}
	return "/"
}

// File implements both Node and Handle for lumps. Writes are buffered and
// committed by one WriteFile on flush, because lump content is write-once
// while the kernel may split a single write into several requests.
type File struct {
	fs      *FS
	path    string
	mu      sync.Mutex
	pending []byte
	dirty   bool
}

var (
	_ fs.Node          = (*File)(nil)
	_ fs.HandleReader  = (*File)(nil)
	_ fs.HandleWriter  = (*File)(nil)
	_ fs.HandleFlusher = (*File)(nil)
	_ fs.NodeFsyncer   = (*File)(nil)
	_ fs.NodeSetattrer = (*File)(nil)
)

// Attr returns file attributes. Written lumps are read-only.
func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attr(a)
}

func (f *File) attr(a *fuse.Attr) error {
	info, err := f.fs.stat(f.path)
	if err != nil {
		return errno(err)
	}
	a.Inode = f.fs.inodes.For(f.path)
	a.Nlink = 1
	a.Size = uint64(info.Size)
	a.Mode = 0o644
	if info.State == wad.StateWritten {
		a.Mode = 0o444
	}
	if f.dirty {
		a.Size = uint64(len(f.pending))
	}
	f.fs.setTimes(a)
	return nil
}

// Read serves a byte range of the lump
func (f *File) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dirty {
		if req.Offset < int64(len(f.pending)) {
			end := min(req.Offset+int64(req.Size), int64(len(f.pending)))
			resp.Data = append(resp.Data[:0], f.pending[req.Offset:end]...)
		}
		return nil
	}

	buf := make([]byte, req.Size)
	f.fs.mu.Lock()
	n, err := f.fs.archive.Read(f.path, buf, req.Offset)
	f.fs.mu.Unlock()
	if errors.Is(err, wad.ErrNotFound) {
		// zero-length lumps carry no content
		return nil
	}
	if err != nil {
		f.fs.log.Error("read failed", "path", f.path, "error", err)
		return errno(err)
	}
	resp.Data = buf[:n]
	return nil
}

// Write buffers data until the file is flushed
func (f *File) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := f.fs.stat(f.path)
	if err != nil {
		return errno(err)
	}
	if info.State == wad.StateWritten {
		return fuse.Errno(syscall.EPERM)
	}

	end := int(req.Offset) + len(req.Data)
	if end > len(f.pending) {
		grown := make([]byte, end)
		copy(grown, f.pending)
		f.pending = grown
	}
	copy(f.pending[req.Offset:], req.Data)
	f.dirty = true
	resp.Size = len(req.Data)
	return nil
}

// Flush commits buffered data as the lump's content
func (f *File) Flush(ctx context.Context, req *fuse.FlushRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commit()
}

func (f *File) commit() error {
	if !f.dirty || len(f.pending) == 0 {
		return nil
	}
	f.fs.mu.Lock()
	n, err := f.fs.archive.WriteFile(f.path, f.pending, len(f.pending), 0)
	f.fs.mu.Unlock()
	if err != nil {
		f.fs.log.Error("write failed", "path", f.path, "error", err)
		return errno(err)
	}
	f.fs.log.Debug("lump written", "path", f.path, "bytes", n)
	f.pending = nil
	f.dirty = false
	return nil
}

// Fsync forces buffered data into the archive
func (f *File) Fsync(ctx context.Context, req *fuse.FsyncRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commit()
}

// Setattr supports truncation of content that is not written yet
func (f *File) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.Valid.Size() {
		info, err := f.fs.stat(f.path)
		if err != nil {
			return errno(err)
		}
		switch {
		case info.State != wad.StateWritten && req.Size <= uint64(len(f.pending)):
			f.pending = f.pending[:req.Size]
		case info.State != wad.StateWritten:
			grown := make([]byte, req.Size)
			copy(grown, f.pending)
			f.pending = grown
			f.dirty = true
		case req.Size != uint64(info.Size):
			return fuse.Errno(syscall.EPERM)
		}
	}
	return f.attr(&resp.Attr)
}

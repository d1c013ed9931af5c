package wadfs

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"bazil.org/fuse"
	"github.com/dendrascience/wadfs/wad"
)

func newTestFS(t *testing.T) (*FS, *wad.Archive) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wad")
	lumps := []wad.Lump{
		{Name: "PLAYPAL", Data: []byte("palette")},
		{Name: "S_START"},
		{Name: "SPR1", Data: []byte("sprite")},
		{Name: "S_END"},
		{Name: "EMPTY"},
	}
	if err := wad.Create(path, "PWAD", lumps); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	a, err := wad.Open(path, wad.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return New(a, Options{Uid: 1000, Gid: 1000}), a
}

func rootDir(t *testing.T, f *FS) *Dir {
	t.Helper()
	n, err := f.Root()
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	return n.(*Dir)
}

func readNode(t *testing.T, file *File, size int) string {
	t.Helper()
	resp := &fuse.ReadResponse{}
	if err := file.Read(context.Background(), &fuse.ReadRequest{Size: size}, resp); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return string(resp.Data)
}

func TestDir_ReadDirAll(t *testing.T) {
	f, _ := newTestFS(t)
	root := rootDir(t, f)

	dirents, err := root.ReadDirAll(context.Background())
	if err != nil {
		t.Fatalf("ReadDirAll failed: %v", err)
	}

	want := []struct {
		name string
		typ  fuse.DirentType
	}{
		{".", fuse.DT_Dir},
		{"..", fuse.DT_Dir},
		{"PLAYPAL", fuse.DT_File},
		{"S", fuse.DT_Dir},
		{"EMPTY", fuse.DT_File},
	}
	if len(dirents) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(dirents), len(want), dirents)
	}
	for i, w := range want {
		if dirents[i].Name != w.name || dirents[i].Type != w.typ {
			t.Errorf("entry %d = %s/%v, want %s/%v", i, dirents[i].Name, dirents[i].Type, w.name, w.typ)
		}
	}
	if dirents[0].Inode != RootInode || dirents[1].Inode != RootInode {
		t.Errorf("root dot entries should use the root inode, got %d and %d", dirents[0].Inode, dirents[1].Inode)
	}
}

func TestDir_Lookup(t *testing.T) {
	f, _ := newTestFS(t)
	root := rootDir(t, f)
	ctx := context.Background()

	node, err := root.Lookup(ctx, "S")
	if err != nil {
		t.Fatalf("Lookup S failed: %v", err)
	}
	sub, ok := node.(*Dir)
	if !ok {
		t.Fatalf("S should be a directory, got %T", node)
	}
	if sub.path != "/S/" {
		t.Errorf("S path = %q, want /S/", sub.path)
	}

	node, err = sub.Lookup(ctx, "SPR1")
	if err != nil {
		t.Fatalf("Lookup SPR1 failed: %v", err)
	}
	var attr fuse.Attr
	if err := node.Attr(ctx, &attr); err != nil {
		t.Fatalf("Attr failed: %v", err)
	}
	if attr.Size != 6 {
		t.Errorf("SPR1 size = %d, want 6", attr.Size)
	}
	if attr.Mode != 0o444 {
		t.Errorf("written lump mode = %v, want 0444", attr.Mode)
	}
	if attr.Uid != 1000 || attr.Gid != 1000 {
		t.Errorf("owner = %d:%d, want 1000:1000", attr.Uid, attr.Gid)
	}
	if got := readNode(t, node.(*File), 100); got != "sprite" {
		t.Errorf("SPR1 content = %q, want sprite", got)
	}

	if _, err := root.Lookup(ctx, "MISSING"); err != fuse.Errno(syscall.ENOENT) {
		t.Errorf("Lookup MISSING error = %v, want ENOENT", err)
	}
}

func TestFile_ReadEmptyLump(t *testing.T) {
	f, _ := newTestFS(t)
	node, err := rootDir(t, f).Lookup(context.Background(), "EMPTY")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got := readNode(t, node.(*File), 16); got != "" {
		t.Errorf("empty lump read %q", got)
	}
}

func TestFile_WriteThenFlush(t *testing.T) {
	f, a := newTestFS(t)
	root := rootDir(t, f)
	ctx := context.Background()

	node, _, err := root.Create(ctx, &fuse.CreateRequest{Name: "NEWLUMP"}, &fuse.CreateResponse{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	file := node.(*File)

	for _, chunk := range []struct {
		off  int64
		data string
	}{{0, "hello "}, {6, "world"}} {
		resp := &fuse.WriteResponse{}
		req := &fuse.WriteRequest{Offset: chunk.off, Data: []byte(chunk.data)}
		if err := file.Write(ctx, req, resp); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if resp.Size != len(chunk.data) {
			t.Errorf("Write size = %d, want %d", resp.Size, len(chunk.data))
		}
	}

	if got := readNode(t, file, 100); got != "hello world" {
		t.Errorf("buffered read = %q", got)
	}
	if a.IsContent("/NEWLUMP") {
		if size, _ := a.Size("/NEWLUMP"); size != 0 {
			t.Errorf("lump committed before flush, size %d", size)
		}
	}

	if err := file.Flush(ctx, &fuse.FlushRequest{}); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	buf := make([]byte, 32)
	n, err := a.Read("/NEWLUMP", buf, 0)
	if err != nil {
		t.Fatalf("archive Read failed: %v", err)
	}
	if string(buf[:n]) != "hello world" {
		t.Errorf("archive content = %q", buf[:n])
	}

	err = file.Write(ctx, &fuse.WriteRequest{Data: []byte("again")}, &fuse.WriteResponse{})
	if err != fuse.Errno(syscall.EPERM) {
		t.Errorf("second write error = %v, want EPERM", err)
	}
}

func TestFile_SetattrTruncate(t *testing.T) {
	f, a := newTestFS(t)
	ctx := context.Background()

	file, err := rootDir(t, f).createFile("ZEROS")
	if err != nil {
		t.Fatalf("createFile failed: %v", err)
	}
	resp := &fuse.SetattrResponse{}
	if err := file.Setattr(ctx, &fuse.SetattrRequest{Valid: fuse.SetattrSize, Size: 4}, resp); err != nil {
		t.Fatalf("Setattr failed: %v", err)
	}
	if resp.Attr.Size != 4 {
		t.Errorf("size after extend = %d, want 4", resp.Attr.Size)
	}
	if err := file.Fsync(ctx, &fuse.FsyncRequest{}); err != nil {
		t.Fatalf("Fsync failed: %v", err)
	}
	if size, _ := a.Size("/ZEROS"); size != 4 {
		t.Errorf("committed size = %d, want 4", size)
	}

	err = file.Setattr(ctx, &fuse.SetattrRequest{Valid: fuse.SetattrSize, Size: 1}, resp)
	if err != fuse.Errno(syscall.EPERM) {
		t.Errorf("truncating written lump error = %v, want EPERM", err)
	}
}

func TestDir_Mkdir(t *testing.T) {
	f, a := newTestFS(t)
	root := rootDir(t, f)
	ctx := context.Background()

	node, err := root.Mkdir(ctx, &fuse.MkdirRequest{Name: "P"})
	if err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	if !a.IsDirectory("/P/") {
		t.Error("/P/ not created")
	}
	if _, err := node.(*Dir).Mkdir(ctx, &fuse.MkdirRequest{Name: "P1"}); err != nil {
		t.Fatalf("nested Mkdir failed: %v", err)
	}

	tests := []struct {
		name string
		want syscall.Errno
	}{
		{"LONG", syscall.EINVAL},
		{"S", syscall.EEXIST},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := root.Mkdir(ctx, &fuse.MkdirRequest{Name: tt.name})
			if err != fuse.Errno(tt.want) {
				t.Errorf("Mkdir %s error = %v, want %v", tt.name, err, tt.want)
			}
		})
	}
}

func TestDir_MknodRejectsSpecialFiles(t *testing.T) {
	f, _ := newTestFS(t)
	_, err := rootDir(t, f).Mknod(context.Background(), &fuse.MknodRequest{Name: "FIFO", Mode: os.ModeNamedPipe | 0o644})
	if err == nil {
		t.Fatal("Mknod of a special file should fail")
	}
}

func TestErrno(t *testing.T) {
	tests := []struct {
		err  error
		want syscall.Errno
	}{
		{wad.ErrNotFound, syscall.ENOENT},
		{wad.ErrMissingAncestor, syscall.ENOENT},
		{wad.ErrExists, syscall.EEXIST},
		{wad.ErrIsDirectory, syscall.EISDIR},
		{wad.ErrNotDirectory, syscall.ENOTDIR},
		{wad.ErrInvalidName, syscall.EINVAL},
		{wad.ErrReservedName, syscall.EPERM},
		{wad.ErrImmutable, syscall.EPERM},
		{wad.ErrReadOnly, syscall.EROFS},
		{wad.ErrSizeOverflow, syscall.EFBIG},
		{wad.ErrBroken, syscall.EIO},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := errno(tt.err); got != fuse.Errno(tt.want) {
				t.Errorf("errno(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
	if errno(nil) != nil {
		t.Error("errno(nil) should be nil")
	}
}

// TestFile_ConcurrentAttr checks that Attr during a Flush does not deadlock.
func TestFile_ConcurrentAttr(t *testing.T) {
	f, _ := newTestFS(t)
	ctx := context.Background()
	file, err := rootDir(t, f).createFile("RACE")
	if err != nil {
		t.Fatalf("createFile failed: %v", err)
	}
	if err := file.Write(ctx, &fuse.WriteRequest{Data: []byte("x")}, &fuse.WriteResponse{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	done := make(chan error, 2)
	go func() { done <- file.Flush(ctx, &fuse.FlushRequest{}) }()
	go func() {
		var attr fuse.Attr
		done <- file.Attr(ctx, &attr)
	}()
	for range 2 {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("deadlocked - test timed out")
		}
	}
}

func TestParentDir(t *testing.T) {
	tests := map[string]string{
		"/":      "/",
		"/S/":    "/",
		"/F/F1/": "/F/",
	}
	for in, want := range tests {
		if got := parentDir(in); got != want {
			t.Errorf("parentDir(%q) = %q, want %q", in, got, want)
		}
	}
}

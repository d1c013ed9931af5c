// Package wadfs serves a WAD archive as a FUSE filesystem.
//
// Namespaces and map groups appear as directories, lumps as files. mkdir
// and create add namespaces and empty lumps; data written to a new lump is
// buffered and committed to the archive when the file is flushed. Lumps that
// already hold data are read-only.
//
// The main entry point is New, which wraps an opened *wad.Archive in a node
// tree that can be mounted using the bazil.org/fuse library.
package wadfs

// Package wad reads and edits WAD archives in place.
//
// A WAD is a 12-byte header (magic, descriptor count, table offset), a blob
// of lump data and a trailing table of 16-byte descriptors. The table is flat;
// the namespace is inferred from it:
//   - a map marker such as E1M1 is a directory holding the next ten lumps
//   - X_START and X_END bracket the lumps of directory X
//   - anything else is a file in the innermost open directory
//
// Open loads the table into a tree and a path index. Queries answer from
// memory and read lump bytes on demand. CreateDirectory and CreateFile splice
// descriptors into the table; WriteFile appends lump data in front of the
// table and rewrites it. Content is write-once.
//
// An Archive is not safe for concurrent use. Callers serialize every call,
// reads included.
package wad

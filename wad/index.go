package wad

// ContentState tracks the write-once lifecycle of a lump.
type ContentState uint8

const (
	// StateEmpty is a zero-length record: a directory marker or an empty lump.
	StateEmpty ContentState = iota
	// StatePlaceholder is a file created but not yet written.
	StatePlaceholder
	// StateWritten holds real content and is terminal.
	StateWritten
)

func (s ContentState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePlaceholder:
		return "placeholder"
	case StateWritten:
		return "written"
	}
	return "unknown"
}

// Entry is the in-memory view of one descriptor.
type Entry struct {
	Name   string
	Offset uint32
	Dir    bool
	State  ContentState
	length uint32
	node   NodeID
}

// Length is the content length; zero for directories and placeholders.
func (e *Entry) Length() uint32 {
	if e.State != StateWritten {
		return 0
	}
	return e.length
}

// diskLength is the value stored in the length field on disk.
func (e *Entry) diskLength() uint32 {
	switch e.State {
	case StatePlaceholder:
		return PlaceholderLength
	case StateWritten:
		return e.length
	}
	return 0
}

// hasContent reports a nonzero on-disk length, i.e. placeholder or real data.
func (e *Entry) hasContent() bool { return !e.Dir && e.State != StateEmpty }

func newEntry(d Descriptor, dir bool, node NodeID) *Entry {
	e := &Entry{Name: d.Name, Offset: d.Offset, Dir: dir, node: node}
	switch {
	case dir || d.Length == 0:
		e.State = StateEmpty
	case d.Length == PlaceholderLength:
		e.State = StatePlaceholder
	default:
		e.State = StateWritten
		e.length = d.Length
	}
	return e
}

// index maps a full path to its entry and is the authority for lookups.
type index struct {
	entries map[string]*Entry
}

func newIndex() *index {
	return &index{entries: make(map[string]*Entry)}
}

func (x *index) lookup(path string) (*Entry, bool) {
	e, ok := x.entries[path]
	return e, ok
}

func (x *index) insert(path string, e *Entry) {
	x.entries[path] = e
}

func (x *index) len() int { return len(x.entries) }

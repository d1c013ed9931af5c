package wad

import (
	"fmt"
	"strings"
)

// span is the inclusive range of descriptor records a node occupies: a
// single record for a file, marker through end marker for a namespace,
// marker through last member for a map group.
type span struct {
	first, last int
}

// layout is the tree, index and record spans inferred from a flat table.
type layout struct {
	tree      *tree
	index     *index
	spans     map[string]span
	anomalies []Anomaly

	// unclosed holds namespaces missing their end marker and map groups
	// cut short. Records placed after them would be read back inside them.
	unclosed map[string]bool
}

// parse infers the namespace from the descriptor sequence. It never fails:
// irregularities are recorded as anomalies and parsing continues with the
// most permissive reading. limit bounds lump extents (usually file size).
func parse(descs []Descriptor, limit int64) *layout {
	l := &layout{
		tree:     newTree(),
		index:    newIndex(),
		spans:    make(map[string]span),
		unclosed: make(map[string]bool),
	}
	l.index.insert("/", &Entry{Dir: true, node: rootID})

	p := parser{layout: l, descs: descs, limit: limit, stack: []NodeID{rootID}}
	p.run()
	return l
}

type parser struct {
	*layout
	descs []Descriptor
	limit int64
	stack []NodeID
}

func (p *parser) top() NodeID { return p.stack[len(p.stack)-1] }

func (p *parser) flag(i int, reason string, args ...any) {
	name := ""
	if i >= 0 && i < len(p.descs) {
		name = p.descs[i].Name
	}
	p.anomalies = append(p.anomalies, Anomaly{Index: i, Name: name, Reason: fmt.Sprintf(reason, args...)})
}

// extend stretches the span of every open namespace to cover record i.
func (p *parser) extend(i int) {
	for _, id := range p.stack[1:] {
		path := p.tree.path(id)
		sp := p.spans[path]
		sp.last = i
		p.spans[path] = sp
	}
}

func (p *parser) run() {
	for i := 0; i < len(p.descs); i++ {
		d := p.descs[i]
		switch {
		case IsMapGroupName(d.Name):
			i = p.mapGroup(i)
		case isStartMarker(d.Name):
			p.startNamespace(i)
		case isEndMarker(d.Name):
			p.endNamespace(i)
		default:
			parent := p.top()
			p.addNode(parent, p.tree.path(parent)+d.Name, i, false)
			p.extend(i)
		}
	}
	for _, id := range p.stack[1:] {
		path := p.tree.path(id)
		p.flag(-1, "namespace %s is never closed", path)
		p.unclosed[path] = true
	}
}

// mapGroup consumes the marker at i and its fixed members, returning the
// index of the last record consumed.
func (p *parser) mapGroup(i int) int {
	first := i
	parent := p.top()
	groupPath := p.tree.path(parent) + p.descs[i].Name + "/"
	group, ok := p.addNode(parent, groupPath, i, true)

	n := 0
	for ; n < MapGroupArity && i+1 < len(p.descs); n++ {
		i++
		if ok {
			p.addNode(group, groupPath+p.descs[i].Name, i, false)
		}
	}
	if n < MapGroupArity {
		p.flag(first, "map group truncated after %d of %d lumps", n, MapGroupArity)
		if ok {
			p.unclosed[groupPath] = true
		}
	}
	if ok {
		p.spans[groupPath] = span{first: first, last: i}
	}
	p.extend(i)
	return i
}

func (p *parser) startNamespace(i int) {
	base := strings.TrimSuffix(p.descs[i].Name, startSuffix)
	if base == "" {
		p.flag(i, "start marker without a namespace name")
		p.extend(i)
		return
	}
	parent := p.top()
	dirPath := p.tree.path(parent) + base + "/"

	// A namespace opened twice under the same parent is merged into one
	// directory; its span then covers both runs.
	if e, ok := p.index.lookup(dirPath); ok && e.Dir {
		p.stack = append(p.stack, e.node)
		p.extend(i)
		return
	}
	id, ok := p.addNode(parent, dirPath, i, true)
	if !ok {
		// keep the stack balanced for the matching end marker
		id = parent
	}
	p.stack = append(p.stack, id)
	p.extend(i)
}

func (p *parser) endNamespace(i int) {
	if len(p.stack) == 1 {
		p.flag(i, "end marker with no open namespace")
		return
	}
	open := p.tree.path(p.top())
	base := strings.TrimSuffix(p.descs[i].Name, endSuffix)
	if !strings.HasSuffix(open, "/"+base+"/") {
		p.flag(i, "end marker closes namespace %s", open)
	}
	p.extend(i)
	p.stack = p.stack[:len(p.stack)-1]
}

// addNode registers a node and its entry. A path seen before keeps its
// first occurrence; ok is false for the duplicate.
func (p *parser) addNode(parent NodeID, path string, i int, dir bool) (NodeID, bool) {
	d := p.descs[i]
	if _, exists := p.index.lookup(path); exists {
		p.flag(i, "duplicate path %s", path)
		return noParent, false
	}
	if !dir && d.Length != PlaceholderLength && int64(d.Offset)+int64(d.Length) > p.limit {
		p.flag(i, "lump [%d, %d) extends past end of file %d", d.Offset, int64(d.Offset)+int64(d.Length), p.limit)
	}
	id := p.tree.add(parent, path)
	p.index.insert(path, newEntry(d, dir, id))
	p.spans[path] = span{first: i, last: i}
	return id, true
}

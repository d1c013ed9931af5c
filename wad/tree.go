package wad

// NodeID addresses a node in the tree arena.
type NodeID int32

const (
	rootID   NodeID = 0
	noParent NodeID = -1
)

type treeNode struct {
	path     string
	parent   NodeID
	children []NodeID
}

// tree owns every node; children are arena indices in descriptor order and
// parent is a plain back-index.
type tree struct {
	nodes []treeNode
}

func newTree() *tree {
	return &tree{nodes: []treeNode{{path: "/", parent: noParent}}}
}

func (t *tree) add(parent NodeID, path string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, treeNode{path: path, parent: parent})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

func (t *tree) path(id NodeID) string { return t.nodes[id].path }

func (t *tree) parent(id NodeID) NodeID { return t.nodes[id].parent }

func (t *tree) children(id NodeID) []NodeID { return t.nodes[id].children }

func (t *tree) lastChild(id NodeID) (NodeID, bool) {
	c := t.nodes[id].children
	if len(c) == 0 {
		return noParent, false
	}
	return c[len(c)-1], true
}

func (t *tree) len() int { return len(t.nodes) }

package render

import (
	"sort"
	"strconv"

	"github.com/Conceptual-Machines/magda-composer/internal/random"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// Node is one arena entry of the composition tree
type Node struct {
	ID       int
	Parent   int // -1 for the root
	Children []int
	Depth    int
	Segment  Segment
	Seed     uint64
	Path     string
	Rendered bool
	Err      error // last MissingContext reason while unresolved
}

// Unresolved describes a node that never rendered within the pass bound
type Unresolved struct {
	Path   string          `json:"path"`
	Kind   Kind            `json:"kind"`
	Timing timing.Interval `json:"timing"`
	Reason string          `json:"reason"`
}

// Tree is the arena of rendered segments, indexed by kind and start tick
type Tree struct {
	nodes  []*Node
	byKind map[Kind][]int // node ids sorted by start, then id
}

func newTree(root Segment, seed uint64) *Tree {
	t := &Tree{byKind: make(map[Kind][]int)}
	t.add(-1, root, seed, string(root.Kind()))
	return t
}

func (t *Tree) add(parent int, seg Segment, seed uint64, path string) *Node {
	depth := 0
	if parent >= 0 {
		depth = t.nodes[parent].Depth + 1
	}
	n := &Node{ID: len(t.nodes), Parent: parent, Depth: depth, Segment: seg, Seed: seed, Path: path}
	t.nodes = append(t.nodes, n)
	if parent >= 0 {
		t.nodes[parent].Children = append(t.nodes[parent].Children, n.ID)
	}

	ids := t.byKind[seg.Kind()]
	pos := sort.Search(len(ids), func(i int) bool {
		return t.nodes[ids[i]].Segment.Timing.Start > seg.Timing.Start
	})
	ids = append(ids, 0)
	copy(ids[pos+1:], ids[pos:])
	ids[pos] = n.ID
	t.byKind[seg.Kind()] = ids
	return n
}

// attach adds rendered children below parent, deriving each child's seed from the parent seed
// and the child's path component
func (t *Tree) attach(parent *Node, children []Segment) {
	for i, child := range children {
		component := string(child.Kind()) + "#" + strconv.Itoa(i)
		if child.Name != "" {
			component = string(child.Kind()) + ":" + child.Name
		}
		seed := random.Derive(parent.Seed, component)
		t.add(parent.ID, child, seed, parent.Path+"/"+component)
	}
}

// Root returns the root node
func (t *Tree) Root() *Node {
	return t.nodes[0]
}

// Len returns the number of nodes
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given id
func (t *Tree) Node(id int) *Node {
	return t.nodes[id]
}

// Nodes returns all nodes in arena order
func (t *Tree) Nodes() []*Node {
	return t.nodes
}

// Segments returns every segment of kind ordered by start tick
func (t *Tree) Segments(kind Kind) []Segment {
	ids := t.byKind[kind]
	segs := make([]Segment, len(ids))
	for i, id := range ids {
		segs[i] = t.nodes[id].Segment
	}
	return segs
}

// NodesOf returns every node of kind ordered by start tick
func (t *Tree) NodesOf(kind Kind) []*Node {
	ids := t.byKind[kind]
	nodes := make([]*Node, len(ids))
	for i, id := range ids {
		nodes[i] = t.nodes[id]
	}
	return nodes
}

// Ancestor returns the nearest ancestor of id with the given kind
func (t *Tree) Ancestor(id int, kind Kind) (*Node, bool) {
	for p := t.nodes[id].Parent; p >= 0; p = t.nodes[p].Parent {
		if t.nodes[p].Segment.Kind() == kind {
			return t.nodes[p], true
		}
	}
	return nil, false
}

// IsDescendant reports whether id lies strictly below ancestor
func (t *Tree) IsDescendant(id, ancestor int) bool {
	for p := t.nodes[id].Parent; p >= 0; p = t.nodes[p].Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Unresolved lists nodes that had renderers but never rendered. Their subtrees are absent.
func (t *Tree) Unresolved() []Unresolved {
	var out []Unresolved
	for _, n := range t.nodes {
		if n.Rendered {
			continue
		}
		reason := "not rendered"
		if n.Err != nil {
			reason = n.Err.Error()
		}
		out = append(out, Unresolved{
			Path:   n.Path,
			Kind:   n.Segment.Kind(),
			Timing: n.Segment.Timing,
			Reason: reason,
		})
	}
	return out
}

// candidates returns node ids of kind whose start is not after limit, in index order
func (t *Tree) candidates(kind Kind, limit int, bounded bool) []int {
	ids := t.byKind[kind]
	if !bounded {
		return ids
	}
	end := sort.Search(len(ids), func(i int) bool {
		return t.nodes[ids[i]].Segment.Timing.Start > limit
	})
	return ids[:end]
}

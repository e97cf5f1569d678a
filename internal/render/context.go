package render

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/Conceptual-Machines/magda-composer/internal/random"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// Context is the read-only view a renderer gets of the partially built tree
type Context struct {
	tree *Tree
	node *Node
	seed uint64
}

func newContext(tree *Tree, node *Node, seed uint64) *Context {
	return &Context{tree: tree, node: node, seed: seed}
}

// Segment returns the segment being rendered
func (c *Context) Segment() Segment {
	return c.node.Segment
}

// Path returns the seed path of the node being rendered
func (c *Context) Path() string {
	return c.node.Path
}

// Seed returns the seed of the renderer invocation
func (c *Context) Seed() uint64 {
	return c.seed
}

// Rng returns a fresh generator seeded from the node. Each call restarts the same stream.
func (c *Context) Rng() *rand.Rand {
	return random.New(c.seed)
}

// RngWithSeed returns a generator derived from the node seed and key, for draws that must not
// depend on how much of the main stream was consumed
func (c *Context) RngWithSeed(key any) *rand.Rand {
	return random.New(random.Derive(c.seed, fmt.Sprint(key)))
}

// Ancestor returns the nearest ancestor segment of kind
func (c *Context) Ancestor(kind Kind) (Segment, bool) {
	n, ok := c.tree.Ancestor(c.node.ID, kind)
	if !ok {
		return Segment{}, false
	}
	return n.Segment, true
}

// Find starts a query for segments of kind
func (c *Context) Find(kind Kind) *Query {
	return &Query{ctx: c, kind: kind}
}

// Query selects segments of one kind from the tree. Filters combine with AND.
type Query struct {
	ctx  *Context
	kind Kind

	hasTiming bool
	relation  timing.Relation
	ref       timing.Interval

	subtreeOf Kind
	under     []Kind
	where     []func(Segment) bool
}

// WithTiming keeps segments standing in relation rel to iv
func (q *Query) WithTiming(rel timing.Relation, iv timing.Interval) *Query {
	q.hasTiming = true
	q.relation = rel
	q.ref = iv
	return q
}

// During is WithTiming(timing.During, iv)
func (q *Query) During(iv timing.Interval) *Query {
	return q.WithTiming(timing.During, iv)
}

// WithinAncestor keeps segments below the rendering node's nearest ancestor of kind
func (q *Query) WithinAncestor(kind Kind) *Query {
	q.subtreeOf = kind
	return q
}

// Within keeps segments that have some ancestor of kind
func (q *Query) Within(kind Kind) *Query {
	q.under = append(q.under, kind)
	return q
}

// Where keeps segments accepted by fn
func (q *Query) Where(fn func(Segment) bool) *Query {
	q.where = append(q.where, fn)
	return q
}

func (q *Query) describe() string {
	s := string(q.kind)
	if q.hasTiming {
		s += fmt.Sprintf(" %s %s", q.relation, q.ref)
	}
	if q.subtreeOf != "" {
		s += " within ancestor " + string(q.subtreeOf)
	}
	return s
}

// Nodes returns the matching nodes ordered by start tick, then arena id
func (q *Query) Nodes() []*Node {
	tree := q.ctx.tree
	self := q.ctx.node

	scope := -1
	if q.subtreeOf != "" {
		anc, ok := tree.Ancestor(self.ID, q.subtreeOf)
		if !ok {
			return nil
		}
		scope = anc.ID
	}

	var out []*Node
	for _, id := range tree.candidates(q.kind, q.ref.End, q.hasTiming) {
		n := tree.nodes[id]
		if n.ID == self.ID {
			continue
		}
		if q.hasTiming && !q.relation.Matches(n.Segment.Timing, q.ref) {
			continue
		}
		if scope >= 0 && !tree.IsDescendant(n.ID, scope) {
			continue
		}
		if !q.underAll(n) || !q.accepts(n.Segment) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Segment.Timing.Start != out[b].Segment.Timing.Start {
			return out[a].Segment.Timing.Start < out[b].Segment.Timing.Start
		}
		return out[a].ID < out[b].ID
	})
	return out
}

func (q *Query) underAll(n *Node) bool {
	for _, kind := range q.under {
		if _, ok := q.ctx.tree.Ancestor(n.ID, kind); !ok {
			return false
		}
	}
	return true
}

func (q *Query) accepts(seg Segment) bool {
	for _, fn := range q.where {
		if !fn(seg) {
			return false
		}
	}
	return true
}

// GetAll returns every match ordered by start tick
func (q *Query) GetAll() []Segment {
	nodes := q.Nodes()
	segs := make([]Segment, len(nodes))
	for i, n := range nodes {
		segs[i] = n.Segment
	}
	return segs
}

// Get returns the most specific match: the deepest node, ties broken by earliest start
func (q *Query) Get() (Segment, bool) {
	var best *Node
	for _, n := range q.Nodes() {
		if best == nil || n.Depth > best.Depth {
			best = n
		}
	}
	if best == nil {
		return Segment{}, false
	}
	return best.Segment, true
}

// Require is Get, failing with MissingContext when nothing matches
func (q *Query) Require() (Segment, error) {
	seg, ok := q.Get()
	if !ok {
		return Segment{}, MissingContext("no %s", q.describe())
	}
	return seg, nil
}

// RequireAll is GetAll, failing with MissingContext when nothing matches
func (q *Query) RequireAll() ([]Segment, error) {
	segs := q.GetAll()
	if len(segs) == 0 {
		return nil, MissingContext("no %s", q.describe())
	}
	return segs, nil
}

// As returns the segment's element as T
func As[T Element](seg Segment) (T, bool) {
	e, ok := seg.Element.(T)
	return e, ok
}

// RequireAs runs q.Require and asserts the element type
func RequireAs[T Element](q *Query) (T, Segment, error) {
	var zero T
	seg, err := q.Require()
	if err != nil {
		return zero, seg, err
	}
	e, ok := As[T](seg)
	if !ok {
		return zero, seg, fmt.Errorf("%s segment holds %T", seg.Kind(), seg.Element)
	}
	return e, seg, nil
}

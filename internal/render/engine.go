package render

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/random"
)

// DefaultMaxPasses bounds fixed-point resolution
const DefaultMaxPasses = 16

// Engine resolves a root segment into a full tree by running registered renderers until no
// further node can be rendered
type Engine struct {
	renderers map[Kind][]Renderer
	maxPasses int
}

// Option configures an Engine
type Option func(*Engine)

// WithMaxPasses overrides the pass bound. Values below 1 are ignored.
func WithMaxPasses(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxPasses = n
		}
	}
}

// NewEngine creates an engine with no renderers
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		renderers: make(map[Kind][]Renderer),
		maxPasses: DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds renderers. Several renderers for one kind all run and their outputs are
// concatenated in registration order.
func (e *Engine) Register(rs ...Renderer) *Engine {
	for _, r := range rs {
		e.renderers[r.Kind()] = append(e.renderers[r.Kind()], r)
	}
	return e
}

// Merge registers every renderer of other
func (e *Engine) Merge(other *Engine) *Engine {
	for _, kind := range other.Kinds() {
		e.Register(other.renderers[kind]...)
	}
	return e
}

// Kinds lists the kinds that have renderers
func (e *Engine) Kinds() []Kind {
	kinds := make([]Kind, 0, len(e.renderers))
	for k := range e.renderers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(a, b int) bool { return kinds[a] < kinds[b] })
	return kinds
}

// MaxPasses returns the pass bound
func (e *Engine) MaxPasses() int {
	return e.maxPasses
}

// Compose renders root with the given seed. Nodes whose renderers keep reporting missing
// context are left unrendered and listed by Tree.Unresolved. Any other renderer error aborts.
func (e *Engine) Compose(ctx context.Context, root Segment, seed uint64) (*Tree, error) {
	start := time.Now()
	tree := newTree(root, seed)

	for pass := 1; pass <= e.maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return tree, fmt.Errorf("composition cancelled before pass %d: %w", pass, err)
		}

		rendered, pending := 0, 0
		// The tree grows while iterating; children appended here are visited in this pass.
		for id := 0; id < tree.Len(); id++ {
			n := tree.Node(id)
			if n.Rendered {
				continue
			}
			rs := e.renderers[n.Segment.Kind()]
			if len(rs) == 0 {
				n.Rendered = true
				continue
			}

			children, err := e.renderNode(tree, n, rs)
			if err != nil {
				if IsMissingContext(err) {
					n.Err = err
					pending++
					continue
				}
				return tree, fmt.Errorf("render %s: %w", n.Path, err)
			}
			tree.attach(n, children)
			n.Rendered = true
			n.Err = nil
			rendered++
		}

		logger.Debug("Render pass complete", logger.Fields{
			"pass":     pass,
			"rendered": rendered,
			"pending":  pending,
			"nodes":    tree.Len(),
		})

		if pending == 0 || rendered == 0 {
			break
		}
	}

	if unresolved := tree.Unresolved(); len(unresolved) > 0 {
		logger.Warn("Composition left unresolved nodes", logger.Fields{
			"count":  len(unresolved),
			"first":  unresolved[0].Path,
			"reason": unresolved[0].Reason,
		})
	}

	logger.Debug("Composition rendered", logger.Fields{
		"nodes":    tree.Len(),
		"duration": time.Since(start).String(),
	})
	return tree, nil
}

func (e *Engine) renderNode(tree *Tree, n *Node, rs []Renderer) ([]Segment, error) {
	var children []Segment
	for i, r := range rs {
		seed := n.Seed
		if i > 0 {
			seed = random.Derive(n.Seed, "renderer#"+strconv.Itoa(i))
		}
		out, err := r.Render(n.Segment, newContext(tree, n, seed))
		if err != nil {
			return nil, err
		}
		children = append(children, out...)
	}
	return children, nil
}

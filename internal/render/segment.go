package render

import (
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// Kind tags each element variant. The set of kinds is closed and declared by the models package.
type Kind string

// Element is any payload that can be placed on the timeline
type Element interface {
	Kind() Kind
}

// Segment is an element placed over a time interval. A non-empty Name replaces the positional
// index in the child seed path, so equally named siblings render identically.
type Segment struct {
	Element Element
	Timing  timing.Interval
	Name    string
}

// Over places an element over an interval
func Over(e Element, iv timing.Interval) Segment {
	return Segment{Element: e, Timing: iv}
}

// Named places a named element over an interval
func Named(e Element, name string, iv timing.Interval) Segment {
	return Segment{Element: e, Timing: iv, Name: name}
}

// Kind returns the element's kind
func (s Segment) Kind() Kind {
	if s.Element == nil {
		return ""
	}
	return s.Element.Kind()
}

// Renderer turns one segment into child segments, reading the partially built tree through ctx.
// Renderers must be pure functions of (segment, ctx, ctx's random sources).
type Renderer interface {
	Kind() Kind
	Render(seg Segment, ctx *Context) ([]Segment, error)
}

// RenderFunc is the signature of an ad hoc renderer
type RenderFunc func(seg Segment, ctx *Context) ([]Segment, error)

type adhocRenderer struct {
	kind Kind
	fn   RenderFunc
}

// Adhoc wraps a function as a Renderer for kind
func Adhoc(kind Kind, fn RenderFunc) Renderer {
	return adhocRenderer{kind: kind, fn: fn}
}

func (r adhocRenderer) Kind() Kind { return r.kind }

func (r adhocRenderer) Render(seg Segment, ctx *Context) ([]Segment, error) {
	return r.fn(seg, ctx)
}

package position

import (
	"github.com/matzehuels/risekit/pkg/geometry"
)

// Kind is the fully-qualified type tag of a strategy. It is the first token
// of every packed strategy string.
type Kind string

const (
	KindAlign  Kind = "risekit.position.align"
	KindMap    Kind = "risekit.position.map"
	KindStream Kind = "risekit.position.stream"
	KindGrid   Kind = "risekit.position.grid"
	KindSlot   Kind = "risekit.position.slot"
)

// Child is a widget whose geometry is owned by its parent's strategy.
type Child interface {
	Box() *geometry.Box
}

// Container is the widget hosting the children a strategy positions.
type Container interface {
	// ContentSize returns the live size children are laid out in.
	ContentSize() geometry.Size

	// Items returns the hosted children in order.
	Items() []Child
}

// Strategy turns placement requests into edge values on children's boxes
// and owns whatever auxiliary state that needs.
//
// Calls on one strategy are sequential: each Allocate observes the state
// left by the previous Allocate or Actualize.
type Strategy interface {
	// Kind returns the type tag.
	Kind() Kind

	// Init binds the strategy to its container and derives auxiliary
	// state. It may be called again after decoding.
	Init(c Container)

	// Allocate positions ch according to req. Re-invoking it for an
	// already positioned child must not change the outcome.
	Allocate(ch Child, req Request)

	// Actualize re-derives children's geometry after a structural change.
	Actualize(change Change)

	// OnElementRemoved releases state held for ch. It is called while ch
	// is still listed by the container.
	OnElementRemoved(ch Child)

	// OnCleared resets all auxiliary state.
	OnCleared()

	// Encode returns the packed form "tag;key:value;...".
	Encode() string

	// NeedsActualize reports whether a hydrated copy should run one
	// extra Actualize pass on the client.
	NeedsActualize() bool
}

// Change describes a structural change of a container.
type Change struct {
	Inserted Child
	Removed  Child
	Resized  bool
}

// Alignment positions a child inside the container on one axis.
type Alignment string

const (
	AlignNone    Alignment = ""
	AlignStart   Alignment = "start"
	AlignCenter  Alignment = "center"
	AlignEnd     Alignment = "end"
	AlignStretch Alignment = "stretch"
)

// Cell is a grid origin and span in cells.
type Cell struct {
	Col, Row int
	W, H     int
}

// Request is a declarative placement request. Strategies read the fields
// that apply to them and ignore the rest.
type Request struct {
	// Edges are explicit edge values indexed by geometry.Edge. Unset
	// entries are ignored.
	Edges [6]geometry.Measure

	// HAlign and VAlign are used by Align when the request lacks the
	// edges of an axis.
	HAlign, VAlign Alignment

	// Cols and Rows are the span requested from a grid (at least 1).
	Cols, Rows int

	// At pins a grid child to an explicit origin instead of first-fit.
	At *Cell
}

// WithEdge returns a copy of r with edge e set to m.
func (r Request) WithEdge(e geometry.Edge, m geometry.Measure) Request {
	if e.Valid() {
		r.Edges[e] = m
	}
	return r
}

// hasAxis reports whether the request sets at least one edge of a.
func (r Request) hasAxis(a geometry.Axis) bool {
	for _, e := range a.Edges() {
		if r.Edges[e].IsSet() {
			return true
		}
	}
	return false
}

// applyEdges writes the explicit edges of r onto b. When two edges of an
// axis are given they become that axis' priority pair (in start, size, end
// order), so request order never causes an unwanted eviction.
func applyEdges(b *geometry.Box, edges [6]geometry.Measure) {
	for _, a := range []geometry.Axis{geometry.Horizontal, geometry.Vertical} {
		var set []geometry.Edge
		for _, e := range a.Edges() {
			if edges[e].IsSet() {
				set = append(set, e)
			}
		}
		switch len(set) {
		case 0:
		case 1:
			b.SetEdge(set[0], edges[set[0]])
		default:
			_ = b.SetPriority(a, set[0], set[1])
			b.SetEdge(set[0], edges[set[0]])
			b.SetEdge(set[1], edges[set[1]])
		}
	}
}

// setRect writes a pixel rectangle using the default priorities.
func setRect(b *geometry.Box, r geometry.Rect) {
	_ = b.SetPriority(geometry.Horizontal, geometry.Left, geometry.Width)
	_ = b.SetPriority(geometry.Vertical, geometry.Top, geometry.Height)
	b.SetEdge(geometry.Left, geometry.Px(r.X))
	b.SetEdge(geometry.Width, geometry.Px(r.W))
	b.SetEdge(geometry.Top, geometry.Px(r.Y))
	b.SetEdge(geometry.Height, geometry.Px(r.H))
}

func indexOf(items []Child, ch Child) int {
	for i, it := range items {
		if it == ch {
			return i
		}
	}
	return -1
}

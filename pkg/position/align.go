package position

import (
	"fmt"
	"strings"

	"github.com/matzehuels/risekit/pkg/geometry"
)

// Align is the absolute strategy: children carry explicit edges, and an
// axis without edges is aligned inside the container. It keeps no state.
type Align struct {
	h, v      Alignment
	container Container
}

// NewAlign returns an Align strategy with default alignments for children
// that request none. Empty alignments mean start.
func NewAlign(h, v Alignment) *Align {
	if h == AlignNone {
		h = AlignStart
	}
	if v == AlignNone {
		v = AlignStart
	}
	return &Align{h: h, v: v}
}

func (s *Align) Kind() Kind             { return KindAlign }
func (s *Align) Init(c Container)       { s.container = c }
func (s *Align) Actualize(Change)       {}
func (s *Align) OnElementRemoved(Child) {}
func (s *Align) OnCleared()             {}
func (s *Align) NeedsActualize() bool   { return false }

// Allocate applies the request's edges, then aligns any axis the request
// left empty.
func (s *Align) Allocate(ch Child, req Request) {
	b := ch.Box()
	applyEdges(b, req.Edges)

	var size geometry.Size
	if s.container != nil {
		size = s.container.ContentSize()
	}
	h := req.HAlign
	if h == AlignNone {
		h = s.h
	}
	v := req.VAlign
	if v == AlignNone {
		v = s.v
	}
	if !req.hasAxis(geometry.Horizontal) || req.HAlign != AlignNone {
		align(b, geometry.Horizontal, h, size.W)
	}
	if !req.hasAxis(geometry.Vertical) || req.VAlign != AlignNone {
		align(b, geometry.Vertical, v, size.H)
	}
}

// align sets the start or end edge of axis a so that the child's size sits
// at the requested position. The size edge keeps its current value.
func align(b *geometry.Box, a geometry.Axis, al Alignment, base float64) {
	edges := a.Edges()
	start, sizeEdge, end := edges[0], edges[1], edges[2]
	size := b.Value(sizeEdge)

	switch al {
	case AlignStretch:
		_ = b.SetPriority(a, start, end)
		b.SetEdge(start, geometry.Px(0))
		b.SetEdge(end, geometry.Px(0))
	case AlignEnd:
		_ = b.SetPriority(a, sizeEdge, end)
		b.SetEdge(sizeEdge, size)
		b.SetEdge(end, geometry.Px(0))
	case AlignCenter:
		_ = b.SetPriority(a, start, sizeEdge)
		b.SetEdge(sizeEdge, size)
		b.SetEdge(start, geometry.Px((base-size.Resolve(base))/2))
	default:
		if !b.Priority(a).Has(start) {
			_ = b.SetPriority(a, start, sizeEdge)
			b.SetEdge(sizeEdge, size)
		}
		b.SetEdge(start, geometry.Px(0))
	}
}

func (s *Align) Encode() string {
	e := newEncoder(KindAlign)
	if s.h != AlignStart || s.v != AlignStart {
		e.str("a", string(s.h)+","+string(s.v))
	}
	return e.String()
}

func (s *Align) decode(f *fields) error {
	a := f.str("a", "")
	if a == "" {
		return nil
	}
	h, v, ok := strings.Cut(a, ",")
	if !ok || !validAlignment(Alignment(h)) || !validAlignment(Alignment(v)) {
		return fmt.Errorf("a: invalid alignment %q", a)
	}
	s.h, s.v = Alignment(h), Alignment(v)
	return nil
}

func validAlignment(a Alignment) bool {
	switch a {
	case AlignStart, AlignCenter, AlignEnd, AlignStretch:
		return true
	}
	return false
}

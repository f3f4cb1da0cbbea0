package geometry

import "fmt"

// Frame reports the live layout of the widget that owns a Box.
type Frame interface {
	// Bounds returns the rendered rectangle relative to the parent's
	// content box.
	Bounds() Rect

	// ParentSize returns the parent's content size. ok is false when the
	// owner is detached.
	ParentSize() (size Size, ok bool)
}

// Box is the geometry record of a widget. It owns value storage and the
// eviction rules only; layout policy belongs to positioning strategies.
//
// The zero Box is not ready for use; call NewBox or Reset.
type Box struct {
	values   [edgeCount]Measure
	priority [2]Priority
	frame    Frame
}

// NewBox returns a box with default priorities bound to frame. frame may be
// nil for boxes that are never queried for converted values.
func NewBox(frame Frame) *Box {
	b := &Box{frame: frame}
	b.Reset()
	return b
}

// Reset clears all values and restores default priorities.
func (b *Box) Reset() {
	b.values = [edgeCount]Measure{}
	b.priority = [2]Priority{DefaultPriority(Horizontal), DefaultPriority(Vertical)}
}

// Bind attaches the box to a frame.
func (b *Box) Bind(f Frame) { b.frame = f }

// Priority returns the live pair of axis a.
func (b *Box) Priority(a Axis) Priority { return b.priority[a] }

// Value returns the stored value of e without conversion.
func (b *Box) Value(e Edge) Measure {
	if !e.Valid() {
		return Measure{}
	}
	return b.values[e]
}

// SetEdge stores v on edge e. If e is not one of the live edges of its axis,
// it becomes the secondary edge and the previous secondary value is evicted.
func (b *Box) SetEdge(e Edge, v Measure) {
	if !e.Valid() {
		return
	}
	a := e.Axis()
	p := b.priority[a]
	if !p.Has(e) {
		b.values[p.Secondary] = Measure{}
		b.priority[a] = Priority{Primary: p.Primary, Secondary: e}
	}
	b.values[e] = v
}

// ClearEdge removes the stored value of e without touching priorities.
func (b *Box) ClearEdge(e Edge) {
	if e.Valid() {
		b.values[e] = Measure{}
	}
}

// SetPriority makes (primary, secondary) the live pair of axis a and evicts
// the value of whichever edge left the pair.
func (b *Box) SetPriority(a Axis, primary, secondary Edge) error {
	p := Priority{Primary: primary, Secondary: secondary}
	if !p.validFor(a) {
		return fmt.Errorf("invalid %s priority (%s, %s)", a, primary, secondary)
	}
	b.values[p.Derived(a)] = Measure{}
	b.priority[a] = p
	return nil
}

// RestorePriority sets the live pair of axis a without evicting anything.
// Hydration uses it because stale values may legitimately coexist with the
// live pair.
func (b *Box) RestorePriority(a Axis, p Priority) error {
	if !p.validFor(a) {
		return fmt.Errorf("invalid %s priority (%s, %s)", a, p.Primary, p.Secondary)
	}
	b.priority[a] = p
	return nil
}

// Edge returns the value of e in unit u. A stored value already in u is
// returned as is; otherwise the value is computed from the live layout.
// Percentages need a parent: on a detached box the result is Undefined.
func (b *Box) Edge(e Edge, u Unit) Measure {
	if !e.Valid() || u == UnitNone {
		return Undefined
	}
	if v := b.values[e]; v.Unit == u && b.priority[e.Axis()].Has(e) {
		return v
	}
	if b.frame == nil {
		return Undefined
	}

	r := b.frame.Bounds()
	parent, attached := b.frame.ParentSize()

	var px float64
	switch e {
	case Left:
		px = r.X
	case Top:
		px = r.Y
	case Width:
		px = r.W
	case Height:
		px = r.H
	case Right:
		if !attached {
			return Undefined
		}
		px = parent.W - r.Right()
	case Bottom:
		if !attached {
			return Undefined
		}
		px = parent.H - r.Bottom()
	}

	if u == UnitPx {
		return Px(px)
	}
	if !attached {
		return Undefined
	}
	base := parent.W
	if e.Axis() == Vertical {
		base = parent.H
	}
	if base == 0 {
		return Undefined
	}
	return Pct(px / base * 100)
}

// Resolve computes the pixel rectangle from the live pair of each axis
// against the parent's content size. Absent live values count as 0.
func (b *Box) Resolve(parent Size) Rect {
	x, w := b.resolveAxis(Horizontal, parent.W)
	y, h := b.resolveAxis(Vertical, parent.H)
	return Rect{X: x, Y: y, W: w, H: h}
}

func (b *Box) resolveAxis(a Axis, base float64) (start, size float64) {
	edges := a.Edges()
	p := b.priority[a]
	get := func(e Edge) float64 { return b.values[e].Resolve(base) }

	switch p.Derived(a) {
	case edges[2]: // start + size
		return get(edges[0]), get(edges[1])
	case edges[1]: // start + end
		start = get(edges[0])
		return start, base - start - get(edges[2])
	default: // size + end
		size = get(edges[1])
		return base - size - get(edges[2]), size
	}
}

// Clone returns a copy of the box bound to the same frame.
func (b *Box) Clone() *Box {
	c := *b
	return &c
}

// Equal reports whether two boxes hold the same values and priorities.
func (b *Box) Equal(o *Box) bool {
	return b.values == o.values && b.priority == o.priority
}

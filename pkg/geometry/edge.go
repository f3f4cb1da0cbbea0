package geometry

import "fmt"

// Edge addresses one of the six box values. The numeric values are part of
// the priority encoding and must not change.
type Edge int

const (
	Left Edge = iota
	Top
	Width
	Height
	Right
	Bottom

	edgeCount
)

var edgeNames = [edgeCount]string{"left", "top", "width", "height", "right", "bottom"}

// String returns the CSS property name of the edge.
func (e Edge) String() string {
	if e < 0 || e >= edgeCount {
		return fmt.Sprintf("edge(%d)", int(e))
	}
	return edgeNames[e]
}

// Valid reports whether e is one of the six edges.
func (e Edge) Valid() bool { return e >= 0 && e < edgeCount }

// Axis returns the axis the edge belongs to.
func (e Edge) Axis() Axis {
	switch e {
	case Top, Height, Bottom:
		return Vertical
	default:
		return Horizontal
	}
}

// EdgeByName returns the edge for a CSS property name.
func EdgeByName(name string) (Edge, bool) {
	for i, n := range edgeNames {
		if n == name {
			return Edge(i), true
		}
	}
	return 0, false
}

// Axis is the horizontal or vertical dimension of a box.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

// String returns "horizontal" or "vertical".
func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Edges returns the start, size and end edges of the axis.
func (a Axis) Edges() [3]Edge {
	if a == Vertical {
		return [3]Edge{Top, Height, Bottom}
	}
	return [3]Edge{Left, Width, Right}
}

// Cross returns the other axis.
func (a Axis) Cross() Axis {
	if a == Vertical {
		return Horizontal
	}
	return Vertical
}

// Priority names the two authoritative edges of an axis. The edge of the axis
// not named here is derived from the other two.
type Priority struct {
	Primary, Secondary Edge
}

// DefaultPriority returns the (start, size) pair of the axis.
func DefaultPriority(a Axis) Priority {
	e := a.Edges()
	return Priority{Primary: e[0], Secondary: e[1]}
}

// Has reports whether e is one of the two live edges.
func (p Priority) Has(e Edge) bool { return p.Primary == e || p.Secondary == e }

// Derived returns the edge of axis a that is not part of the pair.
func (p Priority) Derived(a Axis) Edge {
	for _, e := range a.Edges() {
		if !p.Has(e) {
			return e
		}
	}
	return a.Edges()[2]
}

// validFor reports whether both edges belong to a and differ.
func (p Priority) validFor(a Axis) bool {
	return p.Primary.Valid() && p.Secondary.Valid() &&
		p.Primary != p.Secondary &&
		p.Primary.Axis() == a && p.Secondary.Axis() == a
}

package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit specifies how a Measure is interpreted.
type Unit uint8

const (
	UnitNone    Unit = iota // Absent value
	UnitPx                  // Absolute pixels
	UnitPercent             // Percentage of the parent's content box (0-100 scale)
)

// String returns the CSS suffix of the unit.
func (u Unit) String() string {
	switch u {
	case UnitPx:
		return "px"
	case UnitPercent:
		return "%"
	default:
		return ""
	}
}

// Measure is an edge value: absent, a pixel count, or a percentage.
type Measure struct {
	Amount float64
	Unit   Unit
}

// Undefined is returned when a value cannot be computed, for example a
// percentage requested on a detached node.
var Undefined = Measure{Amount: math.NaN()}

// Px returns a pixel measure.
func Px(v float64) Measure { return Measure{Amount: v, Unit: UnitPx} }

// Pct returns a percentage measure on a 0-100 scale.
func Pct(v float64) Measure { return Measure{Amount: v, Unit: UnitPercent} }

// IsSet reports whether the measure carries a value.
func (m Measure) IsSet() bool { return m.Unit != UnitNone }

// IsUndefined reports whether m is the Undefined sentinel.
func (m Measure) IsUndefined() bool { return m.Unit == UnitNone && math.IsNaN(m.Amount) }

// Resolve converts the measure to pixels given the base length used for
// percentages. Absent measures resolve to 0.
func (m Measure) Resolve(base float64) float64 {
	switch m.Unit {
	case UnitPx:
		return m.Amount
	case UnitPercent:
		return base * m.Amount / 100
	default:
		return 0
	}
}

// String formats the measure in CSS notation ("10px", "25%"). Absent
// measures format as the empty string.
func (m Measure) String() string {
	if !m.IsSet() {
		return ""
	}
	return strconv.FormatFloat(round(m.Amount), 'f', -1, 64) + m.Unit.String()
}

// ParseMeasure parses "10px", "25%" or a bare number (pixels).
func ParseMeasure(s string) (Measure, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Measure{}, nil
	}
	unit := UnitPx
	switch {
	case strings.HasSuffix(s, "px"):
		s = strings.TrimSuffix(s, "px")
	case strings.HasSuffix(s, "%"):
		s = strings.TrimSuffix(s, "%")
		unit = UnitPercent
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Measure{}, fmt.Errorf("parse measure %q: %w", s, err)
	}
	return Measure{Amount: v, Unit: unit}, nil
}

// round trims float noise below 1/10000 of a pixel so that formatted values
// are stable across pack/unpack cycles.
func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Size is a width/height pair in pixels.
type Size struct {
	W, H float64
}

// Rect is a pixel rectangle relative to the parent's content box.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Intersects reports whether r and o overlap with positive area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Translate returns r shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

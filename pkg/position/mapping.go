package position

import (
	"fmt"

	"github.com/matzehuels/risekit/pkg/geometry"
)

// MapUnit is the unit a Map strategy stores edges in.
type MapUnit string

const (
	MapPercent MapUnit = "%"
	MapPixel   MapUnit = "px"
)

// Map positions children by explicit edges converted to one unit against
// the container's content size. Percent maps keep children proportional
// when the container is resized.
type Map struct {
	unit      MapUnit
	container Container
}

// NewMap returns a Map strategy storing edges in u.
func NewMap(u MapUnit) *Map {
	if u != MapPixel {
		u = MapPercent
	}
	return &Map{unit: u}
}

func (s *Map) Kind() Kind             { return KindMap }
func (s *Map) Init(c Container)       { s.container = c }
func (s *Map) Actualize(Change)       {}
func (s *Map) OnElementRemoved(Child) {}
func (s *Map) OnCleared()             {}
func (s *Map) NeedsActualize() bool   { return false }

// Unit returns the storage unit.
func (s *Map) Unit() MapUnit { return s.unit }

func (s *Map) Allocate(ch Child, req Request) {
	var size geometry.Size
	if s.container != nil {
		size = s.container.ContentSize()
	}
	var edges [6]geometry.Measure
	for e := geometry.Left; e <= geometry.Bottom; e++ {
		m := req.Edges[e]
		if !m.IsSet() {
			continue
		}
		base := size.W
		if e.Axis() == geometry.Vertical {
			base = size.H
		}
		edges[e] = s.convert(m, base)
	}
	applyEdges(ch.Box(), edges)
}

// convert expresses m in the map's unit. Without a base length percentages
// cannot be derived and the value is kept as given.
func (s *Map) convert(m geometry.Measure, base float64) geometry.Measure {
	switch {
	case s.unit == MapPixel && m.Unit == geometry.UnitPercent:
		return geometry.Px(m.Resolve(base))
	case s.unit == MapPercent && m.Unit == geometry.UnitPx && base > 0:
		return geometry.Pct(m.Amount / base * 100)
	}
	return m
}

func (s *Map) Encode() string {
	return newEncoder(KindMap).str("u", string(s.unit)).String()
}

func (s *Map) decode(f *fields) error {
	switch u := MapUnit(f.str("u", string(MapPercent))); u {
	case MapPercent, MapPixel:
		s.unit = u
		return nil
	default:
		return fmt.Errorf("u: invalid unit %q", u)
	}
}

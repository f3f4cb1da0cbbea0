package position

import (
	"fmt"

	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
)

// StreamType selects how a stream sizes its children.
type StreamType string

const (
	// StreamSimple lays children out one after another at their own size.
	StreamSimple StreamType = "simple"

	// StreamProportional reserves the indent, then splits the remaining
	// length evenly between all children.
	StreamProportional StreamType = "proportional"
)

// Direction is the main axis of a stream.
type Direction string

const (
	DirHorizontal Direction = "h"
	DirVertical   Direction = "v"
)

// StreamConfig configures a Stream.
type StreamConfig struct {
	Type      StreamType
	Direction Direction
	Indent    float64 // pixels between consecutive children
	Actualize bool
}

func (c *StreamConfig) setDefaults() {
	if c.Type == "" {
		c.Type = StreamSimple
	}
	if c.Direction == "" {
		c.Direction = DirHorizontal
	}
}

func (c StreamConfig) validate() error {
	c.setDefaults()
	if c.Type != StreamSimple && c.Type != StreamProportional {
		return errors.New(errors.ErrCodeInvalidInput, "stream type %q (want simple or proportional)", c.Type)
	}
	if c.Direction != DirHorizontal && c.Direction != DirVertical {
		return errors.New(errors.ErrCodeInvalidInput, "stream direction %q (want h or v)", c.Direction)
	}
	if c.Indent < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "stream indent must not be negative")
	}
	return nil
}

// Stream flows children along one axis. Its flow cursor (the main-axis
// offset following the last child) is auxiliary state and is packed.
type Stream struct {
	cfg       StreamConfig
	cursor    float64
	container Container
}

// NewStream returns a stream strategy.
func NewStream(cfg StreamConfig) *Stream {
	cfg.setDefaults()
	return &Stream{cfg: cfg}
}

func (s *Stream) Kind() Kind           { return KindStream }
func (s *Stream) Init(c Container)     { s.container = c }
func (s *Stream) NeedsActualize() bool { return s.cfg.Actualize }

// Cursor returns the main-axis offset after the last child.
func (s *Stream) Cursor() float64 { return s.cursor }

func (s *Stream) axis() geometry.Axis {
	if s.cfg.Direction == DirVertical {
		return geometry.Vertical
	}
	return geometry.Horizontal
}

// Allocate records the child's requested main-axis size (simple streams)
// and cross-axis edges, then re-flows all children so the result does not
// depend on how often a child was allocated.
func (s *Stream) Allocate(ch Child, req Request) {
	a := s.axis()
	b := ch.Box()
	size := s.containerSize()
	base := size.W
	if a == geometry.Vertical {
		base = size.H
	}

	if s.cfg.Type == StreamSimple {
		if m := req.Edges[a.Edges()[1]]; m.IsSet() {
			_ = b.SetPriority(a, a.Edges()[0], a.Edges()[1])
			b.SetEdge(a.Edges()[1], geometry.Px(m.Resolve(base)))
		}
	}

	cross := a.Cross().Edges()
	var crossEdges [6]geometry.Measure
	for _, e := range cross {
		crossEdges[e] = req.Edges[e]
	}
	if !req.hasAxis(a.Cross()) {
		crossEdges[cross[0]] = geometry.Px(0)
		crossEdges[cross[1]] = geometry.Pct(100)
	}
	applyEdges(b, crossEdges)

	s.Actualize(Change{Inserted: ch})
}

// Actualize re-flows every child from the start of the container.
func (s *Stream) Actualize(Change) {
	if s.container == nil {
		return
	}
	a := s.axis()
	start, sizeEdge := a.Edges()[0], a.Edges()[1]
	items := s.container.Items()
	size := s.containerSize()
	base := size.W
	if a == geometry.Vertical {
		base = size.H
	}

	s.cursor = 0
	if len(items) == 0 {
		return
	}

	var each float64
	if s.cfg.Type == StreamProportional {
		each = (base - s.cfg.Indent) / float64(len(items))
		if each < 0 {
			each = 0
		}
	}

	for i, it := range items {
		b := it.Box()
		if i > 0 {
			s.cursor += s.cfg.Indent
		}
		length := each
		if s.cfg.Type == StreamSimple {
			length = b.Value(sizeEdge).Resolve(base)
		}
		_ = b.SetPriority(a, start, sizeEdge)
		b.SetEdge(start, geometry.Px(s.cursor))
		b.SetEdge(sizeEdge, geometry.Px(length))
		s.cursor += length
	}
}

func (s *Stream) containerSize() geometry.Size {
	if s.container == nil {
		return geometry.Size{}
	}
	return s.container.ContentSize()
}

func (s *Stream) OnElementRemoved(Child) {}

func (s *Stream) OnCleared() { s.cursor = 0 }

func (s *Stream) Encode() string {
	return newEncoder(KindStream).
		str("t", string(s.cfg.Type)).
		str("d", string(s.cfg.Direction)).
		float("i", s.cfg.Indent).
		float("p", s.cursor).
		flag("na", s.cfg.Actualize).
		String()
}

func (s *Stream) decode(f *fields) error {
	cfg := StreamConfig{
		Type:      StreamType(f.str("t", string(StreamSimple))),
		Direction: Direction(f.str("d", string(DirHorizontal))),
		Indent:    f.float("i", 0),
		Actualize: f.flag("na"),
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("stream config: %w", err)
	}
	s.cfg = cfg
	s.cursor = f.float("p", 0)
	return nil
}

package position

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
)

// SlotAlign distributes the space a slot grid leaves free on an axis.
type SlotAlign string

const (
	// SlotStart packs cells at the start with no gaps.
	SlotStart SlotAlign = "start"

	// SlotMiddle centers the packed cells.
	SlotMiddle SlotAlign = "middle"

	// SlotJustify puts equal gaps before, between and after cells.
	SlotJustify SlotAlign = "justify"

	// SlotEdge puts the first and last cell on the container edges and
	// spreads the rest evenly.
	SlotEdge SlotAlign = "edge"
)

// SlotConfig configures a Slot.
type SlotConfig struct {
	Ratio     float64 // cell width / height
	Cols      int
	Rows      int // 0 derives rows from the child count
	Align     SlotAlign
	Actualize bool
}

func (c *SlotConfig) setDefaults() {
	if c.Ratio <= 0 {
		c.Ratio = 1
	}
	if c.Cols <= 0 {
		c.Cols = 1
	}
	if c.Align == "" {
		c.Align = SlotStart
	}
}

func (c SlotConfig) validate() error {
	if c.Ratio < 0 || math.IsInf(c.Ratio, 0) || math.IsNaN(c.Ratio) {
		return errors.New(errors.ErrCodeInvalidInput, "slot ratio must be positive")
	}
	if c.Rows < 0 || c.Cols < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "slot cols and rows must not be negative")
	}
	c.setDefaults()
	switch c.Align {
	case SlotStart, SlotMiddle, SlotJustify, SlotEdge:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "slot align %q", c.Align)
}

// SlotMetrics is the derived layout of a slot grid: the cell size plus the
// margin before the first cell and the distance between cell origins on
// each axis.
type SlotMetrics struct {
	CellW, CellH   float64
	MarginX, StepX float64
	MarginY, StepY float64
}

// Slot lays children out in a fixed-ratio cell grid. Child j takes cell
// (j mod Cols, j div Cols). Cells are as wide as Cols columns allow unless
// the rows would then overflow the height, in which case the height
// constrains them.
type Slot struct {
	cfg       SlotConfig
	metrics   SlotMetrics
	container Container
}

// NewSlot returns a slot strategy.
func NewSlot(cfg SlotConfig) *Slot {
	cfg.setDefaults()
	return &Slot{cfg: cfg}
}

func (s *Slot) Kind() Kind             { return KindSlot }
func (s *Slot) Init(c Container)       { s.container = c }
func (s *Slot) NeedsActualize() bool   { return s.cfg.Actualize }
func (s *Slot) OnElementRemoved(Child) {}
func (s *Slot) OnCleared()             { s.metrics = SlotMetrics{} }

// Metrics returns the layout computed by the last Allocate or Actualize.
func (s *Slot) Metrics() SlotMetrics { return s.metrics }

// Allocate places every child, since a new child can change the row count
// and with it every cell.
func (s *Slot) Allocate(ch Child, _ Request) {
	s.Actualize(Change{Inserted: ch})
}

// Actualize recomputes the metrics and places all children.
func (s *Slot) Actualize(Change) {
	if s.container == nil {
		return
	}
	items := s.container.Items()
	s.metrics = s.compute(s.container.ContentSize(), len(items))
	m := s.metrics
	for j, it := range items {
		col, row := j%s.cfg.Cols, j/s.cfg.Cols
		setRect(it.Box(), geometry.Rect{
			X: m.MarginX + float64(col)*m.StepX,
			Y: m.MarginY + float64(row)*m.StepY,
			W: m.CellW,
			H: m.CellH,
		})
	}
}

func (s *Slot) rows(n int) int {
	if s.cfg.Rows > 0 {
		return s.cfg.Rows
	}
	return max((n+s.cfg.Cols-1)/s.cfg.Cols, 1)
}

func (s *Slot) compute(size geometry.Size, n int) SlotMetrics {
	cols := s.cfg.Cols
	rows := s.rows(n)

	cw := size.W / float64(cols)
	ch := cw / s.cfg.Ratio
	if ch*float64(rows) > size.H {
		ch = size.H / float64(rows)
		cw = ch * s.cfg.Ratio
	}
	cw, ch = math.Max(cw, 0), math.Max(ch, 0)

	mx, sx := spread(s.cfg.Align, size.W-cw*float64(cols), cw, cols)
	my, sy := spread(s.cfg.Align, size.H-ch*float64(rows), ch, rows)
	return SlotMetrics{CellW: cw, CellH: ch, MarginX: mx, StepX: sx, MarginY: my, StepY: sy}
}

// spread distributes free space f around n cells of length size.
func spread(a SlotAlign, f, size float64, n int) (margin, step float64) {
	if f < 0 {
		f = 0
	}
	switch a {
	case SlotMiddle:
		return f / 2, size
	case SlotJustify:
		gap := f / float64(n+1)
		return gap, size + gap
	case SlotEdge:
		if n < 2 {
			return 0, size
		}
		return 0, size + f/float64(n-1)
	default:
		return 0, size
	}
}

func (s *Slot) Encode() string {
	m := s.metrics
	e := newEncoder(KindSlot).
		float("k", s.cfg.Ratio).
		int("c", s.cfg.Cols).
		int("r", s.cfg.Rows).
		str("a", string(s.cfg.Align))
	if m != (SlotMetrics{}) {
		e.str("i", strings.Join([]string{
			ftoa(m.CellW), ftoa(m.CellH),
			ftoa(m.MarginX), ftoa(m.StepX),
			ftoa(m.MarginY), ftoa(m.StepY),
		}, ","))
	}
	return e.flag("na", s.cfg.Actualize).String()
}

func (s *Slot) decode(f *fields) error {
	cfg := SlotConfig{
		Ratio:     f.float("k", 1),
		Cols:      f.int("c", 1),
		Rows:      f.int("r", 0),
		Align:     SlotAlign(f.str("a", string(SlotStart))),
		Actualize: f.flag("na"),
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("slot config: %w", err)
	}
	var m SlotMetrics
	if v := f.str("i", ""); v != "" {
		parts := strings.Split(v, ",")
		if len(parts) != 6 {
			return fmt.Errorf("i: want 6 values, got %d", len(parts))
		}
		dst := []*float64{&m.CellW, &m.CellH, &m.MarginX, &m.StepX, &m.MarginY, &m.StepY}
		for i, p := range parts {
			n, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return fmt.Errorf("i: %w", err)
			}
			*dst[i] = n
		}
	}
	cfg.setDefaults()
	s.cfg = cfg
	s.metrics = m
	return nil
}

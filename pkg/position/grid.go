package position

import (
	"fmt"
	"math"

	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
)

// GridType selects how a grid derives its cell size and whether it re-packs.
type GridType string

const (
	// GridSimple uses fixed cells of MinWidth×MinHeight.
	GridSimple GridType = "simple"

	// GridProportional divides the container width between Cols columns.
	GridProportional GridType = "proportional"

	// GridStream is proportional and re-packs every child in order on
	// each Actualize.
	GridStream GridType = "stream"

	// GridAdaptive derives the column count from the container width and
	// MinWidth, stretching cells up to MaxWidth.
	GridAdaptive GridType = "adaptive"

	// GridFit is proportional horizontally and fits all rows into the
	// container height within MinHeight..MaxHeight.
	GridFit GridType = "fit"
)

// GridConfig configures a Grid.
type GridConfig struct {
	Type      GridType
	Cols      int
	MinWidth  float64
	MinHeight float64
	MaxWidth  float64
	MaxHeight float64
	Gap       float64
	Actualize bool
}

func (c *GridConfig) setDefaults() {
	if c.Type == "" {
		c.Type = GridProportional
	}
	if c.Cols <= 0 {
		c.Cols = 1
	}
}

func (c GridConfig) validate() error {
	c.setDefaults()
	switch c.Type {
	case GridSimple, GridProportional, GridStream, GridAdaptive, GridFit:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "grid type %q", c.Type)
	}
	if c.Type == GridSimple && (c.MinWidth <= 0 || c.MinHeight <= 0) {
		return errors.New(errors.ErrCodeInvalidInput, "simple grid needs min_width and min_height")
	}
	if c.Type == GridAdaptive && c.MinWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "adaptive grid needs min_width")
	}
	if c.MaxWidth > 0 && c.MaxWidth < c.MinWidth {
		return errors.New(errors.ErrCodeInvalidInput, "grid max_width below min_width")
	}
	if c.MaxHeight > 0 && c.MaxHeight < c.MinHeight {
		return errors.New(errors.ErrCodeInvalidInput, "grid max_height below min_height")
	}
	if c.Gap < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "grid gap must not be negative")
	}
	return nil
}

// Grid places children on a cell grid. Auto-placed children go to the first
// free rectangle in row-major order (see Bitmap.FirstFit); the occupancy
// bitmap is packed with the strategy so that children added after hydration
// land exactly where a continuously running grid would put them.
type Grid struct {
	cfg       GridConfig
	bitmap    *Bitmap
	cells     map[Child]Cell
	container Container

	// restored is set by decode until the children present at that point
	// have claimed their cells from geometry.
	restored bool
}

// NewGrid returns a grid strategy with an empty bitmap.
func NewGrid(cfg GridConfig) *Grid {
	cfg.setDefaults()
	return &Grid{
		cfg:    cfg,
		bitmap: NewBitmap(cfg.Cols),
		cells:  make(map[Child]Cell),
	}
}

func (g *Grid) Kind() Kind           { return KindGrid }
func (g *Grid) NeedsActualize() bool { return g.cfg.Actualize }

// Bitmap returns the occupancy bitmap.
func (g *Grid) Bitmap() *Bitmap { return g.bitmap }

// Cols returns the current column count.
func (g *Grid) Cols() int { return g.bitmap.Cols() }

// Init binds the container. Fresh adaptive grids derive their column
// count here; a decoded grid keeps the packed one until Actualize.
func (g *Grid) Init(c Container) {
	g.container = c
	if g.cfg.Type == GridAdaptive && !g.restored {
		if cols := g.adaptiveCols(); cols != g.bitmap.Cols() && g.bitmap.Rows() == 0 {
			g.bitmap.Reset(cols)
		}
	}
}

// CellOf returns the cell held by ch.
func (g *Grid) CellOf(ch Child) (Cell, bool) {
	g.claim()
	c, ok := g.cells[ch]
	return c, ok
}

// Allocate places ch at req.At or at the first free rectangle of
// req.Cols×req.Rows cells. A child already holding a cell of the same
// span keeps it.
func (g *Grid) Allocate(ch Child, req Request) {
	cols := g.bitmap.Cols()
	w := min(max(req.Cols, 1), cols)
	h := max(req.Rows, 1)
	rowsBefore := g.bitmap.Rows()

	g.claim()
	cur, ok := g.cells[ch]
	if ok {
		if cur.W == w && cur.H == h && (req.At == nil || (req.At.Col == cur.Col && req.At.Row == cur.Row)) {
			g.apply(ch, cur)
			return
		}
		g.bitmap.Mark(cur.Col, cur.Row, cur.W, cur.H, false)
	}

	var cell Cell
	if req.At != nil {
		col := min(max(req.At.Col, 0), cols-w)
		row := max(req.At.Row, 0)
		g.bitmap.Mark(col, row, w, h, true)
		cell = Cell{Col: col, Row: row, W: w, H: h}
	} else {
		col, row := g.bitmap.FirstFit(w, h)
		cell = Cell{Col: col, Row: row, W: w, H: h}
	}
	g.cells[ch] = cell

	if g.cfg.Type == GridFit && g.bitmap.Rows() != rowsBefore {
		g.applyAll()
		return
	}
	g.apply(ch, cell)
}

// Actualize re-derives geometry. Stream grids, and adaptive grids whose
// column count changed, re-pack all children in container order.
func (g *Grid) Actualize(Change) {
	if g.container == nil {
		return
	}
	switch {
	case g.cfg.Type == GridStream:
		g.repack(g.bitmap.Cols())
	case g.cfg.Type == GridAdaptive && g.adaptiveCols() != g.bitmap.Cols():
		g.repack(g.adaptiveCols())
	default:
		g.applyAll()
	}
}

// repack clears the bitmap and first-fits every child again in order.
func (g *Grid) repack(cols int) {
	items := g.container.Items()
	spans := make([]Cell, len(items))
	for i, it := range items {
		c, _ := g.CellOf(it)
		spans[i] = c
	}
	g.bitmap.Reset(cols)
	clear(g.cells)
	for i, it := range items {
		w := min(max(spans[i].W, 1), cols)
		h := max(spans[i].H, 1)
		col, row := g.bitmap.FirstFit(w, h)
		g.cells[it] = Cell{Col: col, Row: row, W: w, H: h}
	}
	g.applyAll()
}

func (g *Grid) applyAll() {
	if g.container == nil {
		return
	}
	for _, it := range g.container.Items() {
		if c, ok := g.CellOf(it); ok {
			g.cells[it] = c
			g.apply(it, c)
		}
	}
}

// claim recovers the cells of a decoded grid's children from their
// geometry, once, in container order. A child only claims cells that are
// marked in the bitmap and not claimed by an earlier child, so a child
// moved in from elsewhere is first-fitted like any new one.
func (g *Grid) claim() {
	if !g.restored || g.container == nil {
		return
	}
	g.restored = false
	taken := NewBitmap(g.bitmap.Cols())
	for _, it := range g.container.Items() {
		if _, ok := g.cells[it]; ok {
			continue
		}
		c, ok := g.deriveCell(it)
		if !ok || !g.holds(c) || overlaps(taken, c) {
			continue
		}
		taken.Mark(c.Col, c.Row, c.W, c.H, true)
		g.cells[it] = c
	}
}

// holds reports whether every cell of c is marked occupied.
func (g *Grid) holds(c Cell) bool {
	if c.Col < 0 || c.Row < 0 || c.Col+c.W > g.bitmap.Cols() {
		return false
	}
	for r := c.Row; r < c.Row+c.H; r++ {
		for col := c.Col; col < c.Col+c.W; col++ {
			if !g.bitmap.Occupied(col, r) {
				return false
			}
		}
	}
	return true
}

func overlaps(b *Bitmap, c Cell) bool {
	for r := c.Row; r < c.Row+c.H; r++ {
		for col := c.Col; col < c.Col+c.W; col++ {
			if b.Occupied(col, r) {
				return true
			}
		}
	}
	return false
}

// OnElementRemoved frees the child's cells. Rows are never shrunk.
func (g *Grid) OnElementRemoved(ch Child) {
	if c, ok := g.CellOf(ch); ok {
		g.bitmap.Mark(c.Col, c.Row, c.W, c.H, false)
	}
	delete(g.cells, ch)
}

func (g *Grid) OnCleared() {
	g.bitmap.Reset(g.bitmap.Cols())
	clear(g.cells)
	g.restored = false
}

// apply writes the pixel rectangle of cell c onto ch.
func (g *Grid) apply(ch Child, c Cell) {
	cw, rh := g.cellSize()
	gap := g.cfg.Gap
	setRect(ch.Box(), geometry.Rect{
		X: float64(c.Col) * (cw + gap),
		Y: float64(c.Row) * (rh + gap),
		W: float64(c.W)*cw + float64(c.W-1)*gap,
		H: float64(c.H)*rh + float64(c.H-1)*gap,
	})
}

// cellSize returns the pixel width and height of one cell.
func (g *Grid) cellSize() (w, h float64) {
	var size geometry.Size
	if g.container != nil {
		size = g.container.ContentSize()
	}
	cols := float64(g.bitmap.Cols())
	gap := g.cfg.Gap
	share := (size.W - gap*(cols-1)) / cols
	if share < 0 {
		share = 0
	}

	switch g.cfg.Type {
	case GridSimple:
		return g.cfg.MinWidth, g.cfg.MinHeight
	case GridAdaptive:
		w = share
		if g.cfg.MaxWidth > 0 && w > g.cfg.MaxWidth {
			w = g.cfg.MaxWidth
		}
		return w, g.rowHeight(w)
	case GridFit:
		rows := float64(max(g.bitmap.Rows(), 1))
		h = (size.H - gap*(rows-1)) / rows
		if h < g.cfg.MinHeight {
			h = g.cfg.MinHeight
		}
		if g.cfg.MaxHeight > 0 && h > g.cfg.MaxHeight {
			h = g.cfg.MaxHeight
		}
		return share, math.Max(h, 0)
	default:
		return share, g.rowHeight(share)
	}
}

// rowHeight is MinHeight when configured, else square cells.
func (g *Grid) rowHeight(w float64) float64 {
	if g.cfg.MinHeight > 0 {
		return g.cfg.MinHeight
	}
	return w
}

func (g *Grid) adaptiveCols() int {
	if g.container == nil || g.cfg.MinWidth <= 0 {
		return g.bitmap.Cols()
	}
	w := g.container.ContentSize().W
	return max(int(math.Floor((w+g.cfg.Gap)/(g.cfg.MinWidth+g.cfg.Gap))), 1)
}

// deriveCell recovers a child's cell from its pixel geometry.
func (g *Grid) deriveCell(ch Child) (Cell, bool) {
	cw, rh := g.cellSize()
	gap := g.cfg.Gap
	if cw+gap <= 0 || rh+gap <= 0 {
		return Cell{}, false
	}
	b := ch.Box()
	x, y := b.Value(geometry.Left), b.Value(geometry.Top)
	w, h := b.Value(geometry.Width), b.Value(geometry.Height)
	if x.Unit != geometry.UnitPx || y.Unit != geometry.UnitPx || w.Unit != geometry.UnitPx || h.Unit != geometry.UnitPx {
		return Cell{}, false
	}
	return Cell{
		Col: int(math.Round(x.Amount / (cw + gap))),
		Row: int(math.Round(y.Amount / (rh + gap))),
		W:   max(int(math.Round((w.Amount+gap)/(cw+gap))), 1),
		H:   max(int(math.Round((h.Amount+gap)/(rh+gap))), 1),
	}, true
}

func (g *Grid) Encode() string {
	return newEncoder(KindGrid).
		str("t", string(g.cfg.Type)).
		int("c", g.bitmap.Cols()).
		float("mw", g.cfg.MinWidth).
		float("mh", g.cfg.MinHeight).
		float("mxw", g.cfg.MaxWidth).
		float("mxh", g.cfg.MaxHeight).
		float("i", g.cfg.Gap).
		str("m", g.bitmap.String()).
		flag("na", g.cfg.Actualize).
		String()
}

func (g *Grid) decode(f *fields) error {
	cfg := GridConfig{
		Type:      GridType(f.str("t", string(GridProportional))),
		Cols:      f.int("c", 1),
		MinWidth:  f.float("mw", 0),
		MinHeight: f.float("mh", 0),
		MaxWidth:  f.float("mxw", 0),
		MaxHeight: f.float("mxh", 0),
		Gap:       f.float("i", 0),
		Actualize: f.flag("na"),
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("grid config: %w", err)
	}
	cfg.setDefaults()
	bm, err := ParseBitmap(cfg.Cols, f.str("m", ""))
	if err != nil {
		return err
	}
	g.cfg = cfg
	g.bitmap = bm
	clear(g.cells)
	g.restored = true
	return nil
}

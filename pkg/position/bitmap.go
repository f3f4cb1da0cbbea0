package position

import (
	"fmt"
	"strings"
)

// Bitmap is the occupancy grid of a Grid strategy: Cols wide, growing one
// row at a time as allocations need room.
type Bitmap struct {
	cols  int
	cells [][]bool
}

// NewBitmap returns an empty bitmap with cols columns and no rows.
func NewBitmap(cols int) *Bitmap {
	return &Bitmap{cols: max(cols, 1)}
}

// Cols returns the column count.
func (b *Bitmap) Cols() int { return b.cols }

// Rows returns the current row count.
func (b *Bitmap) Rows() int { return len(b.cells) }

// Occupied reports whether cell (col, row) is taken. Cells outside the
// bitmap are free.
func (b *Bitmap) Occupied(col, row int) bool {
	if row < 0 || row >= len(b.cells) || col < 0 || col >= b.cols {
		return false
	}
	return b.cells[row][col]
}

// Grow appends one empty row.
func (b *Bitmap) Grow() {
	b.cells = append(b.cells, make([]bool, b.cols))
}

// ensureRows grows the bitmap to at least n rows.
func (b *Bitmap) ensureRows(n int) {
	for len(b.cells) < n {
		b.Grow()
	}
}

// Fits reports whether the w×h rectangle at (col, row) lies inside the
// bitmap and is entirely free.
func (b *Bitmap) Fits(col, row, w, h int) bool {
	if col < 0 || row < 0 || col+w > b.cols || row+h > len(b.cells) {
		return false
	}
	for r := row; r < row+h; r++ {
		for c := col; c < col+w; c++ {
			if b.cells[r][c] {
				return false
			}
		}
	}
	return true
}

// Mark sets the w×h rectangle at (col, row) to v, growing rows as needed.
// Columns outside the bitmap are ignored.
func (b *Bitmap) Mark(col, row, w, h int, v bool) {
	if row < 0 || col < 0 {
		return
	}
	if v {
		b.ensureRows(row + h)
	}
	for r := row; r < row+h && r < len(b.cells); r++ {
		for c := col; c < col+w && c < b.cols; c++ {
			b.cells[r][c] = v
		}
	}
}

// FirstFit finds the first origin, scanning rows top to bottom and columns
// left to right, where a free w×h rectangle fits, growing the bitmap one
// row at a time until one does. w is clamped to the column count. The
// rectangle is marked occupied before returning.
func (b *Bitmap) FirstFit(w, h int) (col, row int) {
	w = min(max(w, 1), b.cols)
	h = max(h, 1)
	// Each added row can only help once the rectangle's height fits, so
	// h+rows extra rows always suffice.
	for limit := len(b.cells) + h; ; {
		for r := 0; r+h <= len(b.cells); r++ {
			for c := 0; c+w <= b.cols; c++ {
				if b.Fits(c, r, w, h) {
					b.Mark(c, r, w, h, true)
					return c, r
				}
			}
		}
		if len(b.cells) >= limit {
			break
		}
		b.Grow()
	}
	// Unreachable: an all-free band of h rows always exists after growing.
	r := len(b.cells)
	b.Mark(0, r, w, h, true)
	return 0, r
}

// Reset removes all rows.
func (b *Bitmap) Reset(cols int) {
	b.cols = max(cols, 1)
	b.cells = nil
}

// String encodes the bitmap as rows of '0'/'1' joined by ','.
func (b *Bitmap) String() string {
	rows := make([]string, len(b.cells))
	for i, row := range b.cells {
		var sb strings.Builder
		for _, v := range row {
			if v {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		rows[i] = sb.String()
	}
	return strings.Join(rows, ",")
}

// ParseBitmap decodes the String form for a grid of cols columns.
func ParseBitmap(cols int, s string) (*Bitmap, error) {
	b := NewBitmap(cols)
	if s == "" {
		return b, nil
	}
	for i, row := range strings.Split(s, ",") {
		if len(row) != b.cols {
			return nil, fmt.Errorf("bitmap row %d has %d cells, want %d", i, len(row), b.cols)
		}
		cells := make([]bool, b.cols)
		for j, ch := range row {
			switch ch {
			case '0':
			case '1':
				cells[j] = true
			default:
				return nil, fmt.Errorf("bitmap row %d: invalid cell %q", i, ch)
			}
		}
		b.cells = append(b.cells, cells)
	}
	return b, nil
}

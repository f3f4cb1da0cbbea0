package position

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/matzehuels/risekit/pkg/geometry"
)

func TestSlotAspectLock(t *testing.T) {
	s := NewSlot(SlotConfig{Ratio: 2, Cols: 2, Rows: 1, Align: SlotMiddle})
	h := newHost(300, 100)
	s.Init(h)
	h.add(s, Request{})
	h.add(s, Request{})

	want := []geometry.Rect{
		{X: 0, Y: 12.5, W: 150, H: 75},
		{X: 150, Y: 12.5, W: 150, H: 75},
	}
	if diff := cmp.Diff(want, h.rects()); diff != "" {
		t.Errorf("rects mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotAlignments(t *testing.T) {
	// k=1 in 300x100: height constrains, cells are 100x100 and 100px of
	// width is free.
	tests := []struct {
		align SlotAlign
		xs    []float64
	}{
		{SlotStart, []float64{0, 100}},
		{SlotMiddle, []float64{50, 150}},
		{SlotJustify, []float64{100.0 / 3, 100.0/3 + 100 + 100.0/3}},
		{SlotEdge, []float64{0, 200}},
	}

	for _, tt := range tests {
		t.Run(string(tt.align), func(t *testing.T) {
			s := NewSlot(SlotConfig{Ratio: 1, Cols: 2, Rows: 1, Align: tt.align})
			h := newHost(300, 100)
			s.Init(h)
			h.add(s, Request{})
			h.add(s, Request{})

			var xs []float64
			for _, r := range h.rects() {
				if r.W != 100 || r.H != 100 {
					t.Errorf("cell = %vx%v, want 100x100", r.W, r.H)
				}
				xs = append(xs, r.X)
			}
			if diff := cmp.Diff(tt.xs, xs, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("x offsets mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSlotEdgeSingleCell(t *testing.T) {
	margin, step := spread(SlotEdge, 60, 20, 1)
	if margin != 0 || step != 20 {
		t.Errorf("spread(edge, n=1) = (%v, %v), want (0, 20)", margin, step)
	}
}

func TestSlotDerivedRows(t *testing.T) {
	s := NewSlot(SlotConfig{Ratio: 1, Cols: 2})
	h := newHost(200, 1000)
	s.Init(h)
	for range 3 {
		h.add(s, Request{})
	}

	if got, want := h.rect(h.items[2]), (geometry.Rect{X: 0, Y: 100, W: 100, H: 100}); got != want {
		t.Errorf("third cell = %+v, want %+v", got, want)
	}
	if m := s.Metrics(); m.CellW != 100 || m.StepY != 100 {
		t.Errorf("Metrics() = %+v", m)
	}
}

package position

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matzehuels/risekit/pkg/geometry"
)

func TestStreamProportional(t *testing.T) {
	s := NewStream(StreamConfig{Type: StreamProportional, Direction: DirHorizontal, Indent: 10})
	h := newHost(310, 40)
	s.Init(h)
	for range 3 {
		h.add(s, Request{})
	}

	want := []geometry.Rect{
		{X: 0, W: 100, H: 40},
		{X: 110, W: 100, H: 40},
		{X: 220, W: 100, H: 40},
	}
	if diff := cmp.Diff(want, h.rects()); diff != "" {
		t.Errorf("rects mismatch (-want +got):\n%s", diff)
	}
	if got, want := s.Encode(), "risekit.position.stream;t:proportional;d:h;i:10;p:320"; got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestStreamSimple(t *testing.T) {
	s := NewStream(StreamConfig{Direction: DirVertical, Indent: 5})
	h := newHost(80, 500)
	s.Init(h)
	a := h.add(s, Request{}.WithEdge(geometry.Height, geometry.Px(30)))
	b := h.add(s, Request{}.WithEdge(geometry.Height, geometry.Pct(10)))

	if got, want := h.rect(a), (geometry.Rect{W: 80, H: 30}); got != want {
		t.Errorf("a = %+v, want %+v", got, want)
	}
	if got, want := h.rect(b), (geometry.Rect{Y: 35, W: 80, H: 50}); got != want {
		t.Errorf("b = %+v, want %+v", got, want)
	}
	if s.Cursor() != 85 {
		t.Errorf("Cursor() = %v, want 85", s.Cursor())
	}

	// Allocating again must not move anything.
	s.Allocate(a, Request{}.WithEdge(geometry.Height, geometry.Px(30)))
	if got := h.rect(b); got.Y != 35 {
		t.Errorf("b.Y after re-allocate = %v, want 35", got.Y)
	}
}

func TestStreamCrossAxisEdges(t *testing.T) {
	s := NewStream(StreamConfig{})
	h := newHost(200, 100)
	s.Init(h)
	req := Request{}.
		WithEdge(geometry.Width, geometry.Px(20)).
		WithEdge(geometry.Top, geometry.Px(10)).
		WithEdge(geometry.Bottom, geometry.Px(10))
	it := h.add(s, req)

	if got, want := h.rect(it), (geometry.Rect{Y: 10, W: 20, H: 80}); got != want {
		t.Errorf("rect = %+v, want %+v", got, want)
	}
}

func TestStreamActualizeAfterRemove(t *testing.T) {
	s := NewStream(StreamConfig{Type: StreamProportional})
	h := newHost(300, 10)
	s.Init(h)
	a := h.add(s, Request{})
	b := h.add(s, Request{})
	h.add(s, Request{})

	h.remove(s, a)

	if got, want := h.rect(b), (geometry.Rect{W: 150, H: 10}); got != want {
		t.Errorf("b = %+v, want %+v", got, want)
	}
}

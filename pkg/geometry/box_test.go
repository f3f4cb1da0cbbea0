package geometry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeFrame struct {
	bounds   Rect
	parent   Size
	attached bool
}

func (f fakeFrame) Bounds() Rect             { return f.bounds }
func (f fakeFrame) ParentSize() (Size, bool) { return f.parent, f.attached }

func TestSetEdgeEvictsSecondary(t *testing.T) {
	b := NewBox(nil)
	b.SetEdge(Left, Px(10))
	b.SetEdge(Width, Px(100))

	b.SetEdge(Right, Px(20))

	if got := b.Priority(Horizontal); got != (Priority{Left, Right}) {
		t.Errorf("Priority = %+v, want (left,right)", got)
	}
	if b.Value(Width).IsSet() {
		t.Errorf("width should be evicted, got %v", b.Value(Width))
	}
	if got := b.Value(Right); got != Px(20) {
		t.Errorf("right = %v, want 20px", got)
	}
	if got := b.Value(Left); got != Px(10) {
		t.Errorf("left = %v, want 10px", got)
	}
}

func TestSetEdgeWithinPairKeepsPriority(t *testing.T) {
	b := NewBox(nil)
	b.SetEdge(Top, Px(5))
	b.SetEdge(Height, Pct(50))

	if got := b.Priority(Vertical); got != DefaultPriority(Vertical) {
		t.Errorf("Priority = %+v, want default", got)
	}
	if got := b.Value(Height); got != Pct(50) {
		t.Errorf("height = %v, want 50%%", got)
	}
}

func TestSetPriority(t *testing.T) {
	b := NewBox(nil)
	b.SetEdge(Left, Px(10))
	b.SetEdge(Width, Px(100))

	if err := b.SetPriority(Horizontal, Width, Right); err != nil {
		t.Fatalf("SetPriority: %v", err)
	}
	if b.Value(Left).IsSet() {
		t.Error("left should be evicted")
	}
	if b.Value(Width) != Px(100) {
		t.Error("width should survive")
	}

	if err := b.SetPriority(Horizontal, Left, Top); err == nil {
		t.Error("mixed-axis priority should fail")
	}
	if err := b.SetPriority(Vertical, Top, Top); err == nil {
		t.Error("duplicate edge priority should fail")
	}
}

func TestRestorePriorityKeepsStaleValues(t *testing.T) {
	b := NewBox(nil)
	b.values[Left] = Px(1)
	b.values[Width] = Px(2)
	b.values[Right] = Px(3)

	if err := b.RestorePriority(Horizontal, Priority{Width, Right}); err != nil {
		t.Fatal(err)
	}
	for _, e := range []Edge{Left, Width, Right} {
		if !b.Value(e).IsSet() {
			t.Errorf("%s evicted by RestorePriority", e)
		}
	}
}

func TestEdgeConversion(t *testing.T) {
	frame := fakeFrame{
		bounds:   Rect{X: 50, Y: 20, W: 100, H: 40},
		parent:   Size{W: 200, H: 80},
		attached: true,
	}
	b := NewBox(frame)
	b.SetEdge(Left, Px(50))
	b.SetEdge(Width, Px(100))

	tests := []struct {
		edge Edge
		unit Unit
		want Measure
	}{
		{Left, UnitPx, Px(50)},
		{Left, UnitPercent, Pct(25)},
		{Width, UnitPercent, Pct(50)},
		{Right, UnitPx, Px(50)},
		{Right, UnitPercent, Pct(25)},
		{Bottom, UnitPx, Px(20)},
		{Height, UnitPercent, Pct(50)},
	}
	for _, tt := range tests {
		t.Run(tt.edge.String()+tt.unit.String(), func(t *testing.T) {
			if got := b.Edge(tt.edge, tt.unit); got != tt.want {
				t.Errorf("Edge(%s, %s) = %v, want %v", tt.edge, tt.unit, got, tt.want)
			}
		})
	}
}

func TestEdgePercentDetachedIsUndefined(t *testing.T) {
	b := NewBox(fakeFrame{bounds: Rect{W: 100, H: 10}})
	b.SetEdge(Width, Px(100))

	if got := b.Edge(Width, UnitPercent); !got.IsUndefined() {
		t.Errorf("Edge(width, %%) on detached box = %v, want Undefined", got)
	}
	if got := b.Edge(Width, UnitPx); got != Px(100) {
		t.Errorf("Edge(width, px) = %v, want 100px", got)
	}
	if got := b.Edge(Right, UnitPx); !got.IsUndefined() {
		t.Errorf("Edge(right, px) on detached box = %v, want Undefined", got)
	}
}

func TestResolve(t *testing.T) {
	parent := Size{W: 300, H: 100}
	tests := []struct {
		name string
		set  func(b *Box)
		want Rect
	}{
		{
			name: "left width",
			set: func(b *Box) {
				b.SetEdge(Left, Px(10))
				b.SetEdge(Width, Pct(50))
			},
			want: Rect{X: 10, W: 150},
		},
		{
			name: "left right",
			set: func(b *Box) {
				b.SetEdge(Left, Px(10))
				b.SetEdge(Right, Px(40))
			},
			want: Rect{X: 10, W: 250},
		},
		{
			name: "width right",
			set: func(b *Box) {
				_ = b.SetPriority(Horizontal, Width, Right)
				b.SetEdge(Width, Px(100))
				b.SetEdge(Right, Px(20))
			},
			want: Rect{X: 180, W: 100},
		},
		{
			name: "top bottom",
			set: func(b *Box) {
				b.SetEdge(Top, Pct(10))
				b.SetEdge(Bottom, Px(10))
			},
			want: Rect{Y: 10, H: 80},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBox(nil)
			tt.set(b)
			if diff := cmp.Diff(tt.want, b.Resolve(parent)); diff != "" {
				t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

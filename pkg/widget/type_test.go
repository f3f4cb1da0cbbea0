package widget

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/risekit/pkg/errors"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	chart := &Type{Namespace: "ext", Name: "Chart", Tag: "canvas"}
	if err := r.Register(chart); err != nil {
		t.Fatal(err)
	}

	t.Run("same type again", func(t *testing.T) {
		again := &Type{Namespace: "ext", Name: "Chart", Tag: "canvas", OnShow: func(*Node) {}}
		if err := r.Register(again); err != nil {
			t.Errorf("Register() = %v, want nil", err)
		}
	})

	t.Run("conflict", func(t *testing.T) {
		other := &Type{Namespace: "ext", Name: "Chart", Leaf: true}
		if err := r.Register(other); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Register() = %v, want conflict", err)
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		if err := r.Register(&Type{Name: "9lives"}); err == nil {
			t.Error("Register() accepted an invalid name")
		}
	})

	got, err := r.LookupName("ext.Chart")
	if err != nil || got != chart {
		t.Errorf("LookupName() = %v, %v", got, err)
	}
	if _, err := r.Lookup("", "Chart"); !errors.Is(err, errors.ErrCodeUnknownType) {
		t.Errorf("Lookup(core) error = %v", err)
	}
}

func TestCoreRegistry(t *testing.T) {
	want := []string{"core.Box", "core.Label", "core.Panel", "core.Rect"}
	if diff := cmp.Diff(want, NewCoreRegistry().Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitTypeName(t *testing.T) {
	tests := []struct {
		in, ns, name string
	}{
		{"Box", CoreNamespace, "Box"},
		{"ext.Chart", "ext", "Chart"},
		{"acme.ui.Chart", "acme.ui", "Chart"},
	}
	for _, tt := range tests {
		ns, name := SplitTypeName(tt.in)
		if ns != tt.ns || name != tt.name {
			t.Errorf("SplitTypeName(%q) = %q, %q", tt.in, ns, name)
		}
	}
}

func TestPlacementRequest(t *testing.T) {
	col := 2
	req, err := Placement{Left: "10", Width: "50%", HAlign: "center", Cols: 2, Col: &col}.Request()
	if err != nil {
		t.Fatal(err)
	}
	if got := req.Edges[0].String(); got != "10px" {
		t.Errorf("left = %q", got)
	}
	if got := req.Edges[2].String(); got != "50%" {
		t.Errorf("width = %q", got)
	}
	if req.At == nil || req.At.Col != 2 || req.At.Row != 0 || req.Cols != 2 {
		t.Errorf("grid fields = %+v at %+v", req, req.At)
	}
	if _, err := (Placement{Top: "12em"}).Request(); err == nil {
		t.Error("Request() accepted an unknown unit")
	}
}

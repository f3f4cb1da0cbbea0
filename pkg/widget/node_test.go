package widget

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
	"github.com/matzehuels/risekit/pkg/handler"
	"github.com/matzehuels/risekit/pkg/position"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	return NewTree(Options{Viewport: geometry.Size{W: 800, H: 600}})
}

func fullPage() Placement {
	return Placement{Left: "0", Top: "0", Width: "800", Height: "600"}
}

func streamPage(children ...Config) Config {
	return Config{
		Type:     TypeBox,
		Key:      "page",
		Place:    fullPage(),
		Position: &position.Spec{Kind: "stream", Indent: 10},
		Children: children,
	}
}

func rect(key string) Config {
	return Config{Type: TypeRect, Key: key, Place: Placement{Width: "100"}}
}

func TestBuildStream(t *testing.T) {
	tr := newTestTree(t)
	root, err := tr.Build(streamPage(rect("a"), rect("b")))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got := []geometry.Rect{root.Find("a").AbsBounds(), root.Find("b").AbsBounds()}
	want := []geometry.Rect{{X: 0, Y: 0, W: 100, H: 600}, {X: 110, Y: 0, W: 100, H: 600}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("child bounds mismatch (-want +got):\n%s", diff)
	}
	if got := root.PackedStrategy(); got != "risekit.position.stream;t:simple;d:h;i:10;p:210" {
		t.Errorf("PackedStrategy() = %q", got)
	}
}

func TestAddIndexDisambiguation(t *testing.T) {
	tr := newTestTree(t)
	root, err := tr.Build(streamPage())
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		n, _ := tr.New(TypeRect, "item")
		if err := root.Add(n, position.Request{}); err != nil {
			t.Fatal(err)
		}
	}
	other, _ := tr.New(TypeRect, "other")
	if err := root.Add(other, position.Request{}); err != nil {
		t.Fatal(err)
	}

	var got []int
	for _, c := range root.Children() {
		got = append(got, c.Index)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 0}, got); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}
	if c := root.Child("item", 2); c == nil || c != root.Children()[2] {
		t.Errorf("Child(item, 2) = %v", c)
	}
}

func TestAddRejects(t *testing.T) {
	tr := newTestTree(t)
	root, err := tr.Build(streamPage(rect("leaf")))
	if err != nil {
		t.Fatal(err)
	}
	n, _ := tr.New(TypeRect, "x")

	if err := root.Find("leaf").Add(n, position.Request{}); err == nil {
		t.Error("Add to a leaf succeeded")
	}

	inner, _ := tr.New(TypeBox, "inner")
	if err := root.Add(inner, position.Request{}); err != nil {
		t.Fatal(err)
	}
	if err := inner.Add(root, position.Request{}); err == nil {
		t.Error("Add of an ancestor succeeded")
	}
}

func TestRemoveReleasesGridCell(t *testing.T) {
	tr := newTestTree(t)
	root, err := tr.Build(Config{
		Type:     TypeBox,
		Place:    fullPage(),
		Position: &position.Spec{Kind: "grid", Cols: 2},
		Children: []Config{rect("a"), rect("b"), rect("c")},
	})
	if err != nil {
		t.Fatal(err)
	}
	g := root.Strategy().(*position.Grid)
	if got := g.Bitmap().String(); got != "11,10" {
		t.Fatalf("bitmap = %q, want 11,10", got)
	}

	if err := root.Remove(root.Find("b")); err != nil {
		t.Fatal(err)
	}
	if got := g.Bitmap().String(); got != "10,10" {
		t.Errorf("bitmap after remove = %q, want 10,10", got)
	}
	if err := root.Remove(root.Find("b")); err == nil {
		t.Error("second Remove succeeded")
	}
}

func TestHostDelegation(t *testing.T) {
	tr := newTestTree(t)
	root, err := tr.Build(Config{
		Type:  TypeBox,
		Key:   "frame",
		Place: fullPage(),
		Host:  "inner",
		Children: []Config{
			{Type: TypePanel, Key: "chrome", Children: []Config{
				{Type: TypeBox, Key: "inner", Position: &position.Spec{Kind: "stream", Direction: "v"}},
			}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	inner := root.Find("inner")
	if root.Host() != inner {
		t.Fatalf("Host() = %v, want inner", root.Host().Key)
	}

	n, _ := tr.New(TypeRect, "row")
	if err := root.Add(n, position.Request{}); err != nil {
		t.Fatal(err)
	}
	if n.Parent() != inner {
		t.Errorf("child parent = %q, want inner", n.Parent().Key)
	}
	if root.Strategy() != inner.Strategy() {
		t.Error("frame strategy is not the host's")
	}
	if err := root.SetHost(n); err == nil {
		t.Error("SetHost to a leaf succeeded")
	}
}

func TestSetHostRejectsNonDescendant(t *testing.T) {
	tr := newTestTree(t)
	root, err := tr.Build(streamPage(Config{Type: TypeBox, Key: "sub"}))
	if err != nil {
		t.Fatal(err)
	}
	stranger, _ := tr.New(TypeBox, "stranger")
	if err := root.SetHost(stranger); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("SetHost(stranger) error = %v", err)
	}
	if err := root.SetHost(root); err == nil {
		t.Error("SetHost(self) succeeded")
	}
}

func TestBuildLinksForwardReference(t *testing.T) {
	tr := newTestTree(t)
	first := rect("first")
	first.Links = map[string]string{"next": "second"}
	root, err := tr.Build(streamPage(first, rect("second")))
	if err != nil {
		t.Fatal(err)
	}
	if got := root.Find("first").Linked("next"); got != root.Find("second") {
		t.Errorf("Linked(next) = %v", got)
	}
}

func TestBuildErrors(t *testing.T) {
	dangling := rect("a")
	dangling.Links = map[string]string{"to": "missing"}

	tests := []struct {
		name string
		cfg  Config
		code errors.Code
	}{
		{"unknown type", Config{Type: "ext.Chart"}, errors.ErrCodeUnknownType},
		{"dangling link", streamPage(dangling), errors.ErrCodeNotFound},
		{"missing host", Config{Type: TypeBox, Host: "nope"}, errors.ErrCodeNotFound},
		{"reserved prop", Config{Type: TypeBox, Props: map[string]any{"_type": "x"}}, errors.ErrCodeInvalidInput},
		{"layout style", Config{Type: TypeBox, Style: map[string]string{"left": "3px"}}, errors.ErrCodeInvalidInput},
		{"bad handler", Config{Type: TypeBox, On: map[string]string{"click": ""}}, errors.ErrCodeInvalidInput},
		{"bad placement", Config{Type: TypeBox, Place: Placement{Left: "wide"}}, errors.ErrCodeInvalidInput},
		{"bad strategy", Config{Type: TypeBox, Position: &position.Spec{Kind: "spiral"}}, errors.ErrCodeInvalidStrategy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestTree(t).Build(tt.cfg)
			if !errors.Is(err, tt.code) {
				t.Errorf("Build() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestFire(t *testing.T) {
	tbl := handler.NewTable()
	var calls []handler.Call
	tbl.MustRegister("toggle", func(_ context.Context, c handler.Call) error {
		calls = append(calls, c)
		return nil
	})
	tr := NewTree(Options{Handlers: tbl})
	btn := rect("btn")
	btn.On = map[string]string{"click": "toggle:menu", "hover": "missing"}
	root, err := tr.Build(streamPage(btn))
	if err != nil {
		t.Fatal(err)
	}
	n := root.Find("btn")

	if err := n.Fire(context.Background(), "click"); err != nil {
		t.Fatalf("Fire(click): %v", err)
	}
	if len(calls) != 1 || calls[0].Target != n || calls[0].Event != "click" {
		t.Fatalf("calls = %+v", calls)
	}
	if diff := cmp.Diff([]string{"menu"}, calls[0].Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	if err := n.Fire(context.Background(), "hover"); !errors.Is(err, errors.ErrCodeUnknownCommand) {
		t.Errorf("Fire(hover) error = %v", err)
	}
	if err := n.Fire(context.Background(), "drag"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Fire(drag) error = %v", err)
	}
}

func TestRunOnLoad(t *testing.T) {
	tbl := handler.NewTable()
	var order []string
	tbl.MustRegister("log", func(_ context.Context, c handler.Call) error {
		order = append(order, c.Args...)
		return nil
	})
	tr := NewTree(Options{Handlers: tbl})
	n, _ := tr.New(TypeBox, "")
	if err := n.Render(Config{OnLoad: []string{"log:one", "unknown", "log:two"}}); err != nil {
		t.Fatal(err)
	}

	errs := n.RunOnLoad(context.Background())
	if len(errs) != 1 || !errors.Is(errs[0], errors.ErrCodeUnknownCommand) {
		t.Errorf("errors = %v", errs)
	}
	if diff := cmp.Diff([]string{"one", "two"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestPath(t *testing.T) {
	tr := newTestTree(t)
	root, err := tr.Build(streamPage(Config{Type: TypeBox, Children: []Config{rect("leaf")}}))
	if err != nil {
		t.Fatal(err)
	}
	if got := root.Find("leaf").Path(); got != "page/Box/leaf" {
		t.Errorf("Path() = %q", got)
	}
}

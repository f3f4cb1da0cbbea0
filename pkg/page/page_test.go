package page

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/position"
	"github.com/matzehuels/risekit/pkg/widget"
)

const homeTOML = `
title = "Home"

[viewport]
width = 300
height = 200

[[roots]]
type = "Panel"
key = "page"
position = { kind = "grid", cols = 3 }
place = { left = "0", top = "0", width = "300", height = "200" }

  [[roots.children]]
  type = "Label"
  key = "title"
  props = { text = "Hi" }
  links = { next = "slot" }

  [[roots.children]]
  key = "slot"
  place = { cols = 2 }

[[units]]
name = "charts"
plugin = "charts"
mount = "slot"
assets = ["module:charts", "https://cdn.example/charts.css"]
code = ["boot"]

  [[units.roots]]
  type = "Rect"
  key = "chart"
`

const homeYAML = `
title: Home
viewport: {width: 300, height: 200}
roots:
  - type: Panel
    key: page
    position: {kind: grid, cols: 3}
    place: {left: "0", top: "0", width: "300", height: "200"}
    children:
      - type: Label
        key: title
        props: {text: Hi}
        links: {next: slot}
      - key: slot
        place: {cols: 2}
units:
  - name: charts
    plugin: charts
    mount: slot
    assets: ["module:charts", "https://cdn.example/charts.css"]
    code: [boot]
    roots:
      - type: Rect
        key: chart
`

func wantHome() *Page {
	return &Page{
		Title:    "Home",
		Viewport: Viewport{Width: 300, Height: 200},
		Roots: []widget.Config{{
			Type:     "Panel",
			Key:      "page",
			Position: &position.Spec{Kind: "grid", Cols: 3},
			Place:    widget.Placement{Left: "0", Top: "0", Width: "300", Height: "200"},
			Children: []widget.Config{
				{Type: "Label", Key: "title", Props: map[string]any{"text": "Hi"}, Links: map[string]string{"next": "slot"}},
				{Key: "slot", Place: widget.Placement{Cols: 2}},
			},
		}},
		Units: []Unit{{
			Name:   "charts",
			Plugin: "charts",
			Mount:  "slot",
			Assets: []string{"module:charts", "https://cdn.example/charts.css"},
			Code:   []string{"boot"},
			Roots:  []widget.Config{{Type: "Rect", Key: "chart"}},
		}},
	}
}

func TestParse(t *testing.T) {
	for _, tt := range []struct {
		format Format
		data   string
	}{
		{FormatTOML, homeTOML},
		{FormatYAML, homeYAML},
	} {
		t.Run(string(tt.format), func(t *testing.T) {
			got, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(wantHome(), got); diff != "" {
				t.Errorf("page mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDefaults(t *testing.T) {
	p, err := Parse([]byte("[[roots]]\nkey = \"a\"\n"), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	if p.Viewport.Width != widget.DefaultViewportWidth || p.Viewport.Height != widget.DefaultViewportHeight {
		t.Errorf("viewport = %+v", p.Viewport)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"empty", FormatTOML, `title = "x"`},
		{"syntax", FormatTOML, `[[roots`},
		{"unknown toml field", FormatTOML, "colour = \"red\"\n[[roots]]\nkey = \"a\""},
		{"unknown yaml field", FormatYAML, "colour: red\nroots: [{key: a}]"},
		{"unnamed unit", FormatTOML, "[[units]]\n[[units.roots]]\nkey = \"a\""},
		{"duplicate unit", FormatYAML, "units: [{name: a, roots: [{key: x}]}, {name: a, roots: [{key: y}]}]"},
		{"unit without roots", FormatYAML, "units: [{name: a}]"},
		{"bad asset", FormatYAML, "units: [{name: a, assets: ['script:'], roots: [{key: x}]}]"},
		{"format", Format("ini"), "a=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), tt.format); !errors.Is(err, errors.ErrCodeInvalidPage) {
				t.Errorf("Parse() error = %v, want invalid page", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "home.yml")
	if err := os.WriteFile(path, []byte(homeYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Home" {
		t.Errorf("Title = %q", p.Title)
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"home.toml": FormatTOML,
		"home.yaml": FormatYAML,
		"HOME.YML":  FormatYAML,
		"home":      FormatTOML,
	} {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestUnitAssets(t *testing.T) {
	u := wantHome().Units[0]
	got, err := u.ParsedAssets()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Name != "https://cdn.example/charts.css" || got[1].Kind.String() != "style" {
		t.Errorf("assets = %v", got)
	}
}

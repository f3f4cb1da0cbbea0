// Package page reads page files: the server-side description of a widget
// tree and of the snippet units loaded into it.
//
// Pages are TOML by default; .yaml and .yml files are read as YAML.
//
//	title = "Home"
//
//	[viewport]
//	width = 1280
//	height = 800
//
//	[[roots]]
//	type = "Panel"
//	key = "page"
//	position = { kind = "grid", cols = 3 }
//
//	[[units]]
//	name = "charts"
//	mount = "page"
//	assets = ["module:charts", "https://cdn.example/charts.css"]
package page

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/risekit/pkg/asset"
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
	"github.com/matzehuels/risekit/pkg/widget"
)

// Format is a page file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Page is a parsed page file.
type Page struct {
	Title    string          `toml:"title" yaml:"title"`
	Viewport Viewport        `toml:"viewport" yaml:"viewport"`
	Roots    []widget.Config `toml:"roots" yaml:"roots"`
	Units    []Unit          `toml:"units" yaml:"units"`
}

// Viewport is the size roots are laid out against.
type Viewport struct {
	Width  float64 `toml:"width" yaml:"width"`
	Height float64 `toml:"height" yaml:"height"`
}

// Size returns the viewport as a geometry size.
func (v Viewport) Size() geometry.Size { return geometry.Size{W: v.Width, H: v.Height} }

// Unit is a snippet or plugin packed separately from the page roots.
type Unit struct {
	Name   string          `toml:"name" yaml:"name"`
	Plugin string          `toml:"plugin" yaml:"plugin"`
	Mount  string          `toml:"mount" yaml:"mount"`
	Assets []string        `toml:"assets" yaml:"assets"`
	Code   []string        `toml:"code" yaml:"code"`
	Roots  []widget.Config `toml:"roots" yaml:"roots"`
	Units  []Unit          `toml:"units" yaml:"units"`
}

// ParsedAssets returns the unit's asset manifest.
func (u *Unit) ParsedAssets() ([]asset.Asset, error) {
	out := make([]asset.Asset, 0, len(u.Assets))
	for _, s := range u.Assets {
		a, err := asset.ParseAsset(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Parse decodes a page and applies defaults.
func Parse(data []byte, format Format) (*Page, error) {
	var p Page
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPage, err, "parse yaml")
		}
	case FormatTOML, "":
		md, err := toml.Decode(string(data), &p)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPage, err, "parse toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidPage, "unknown field %q", undecoded[0].String())
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidPage, "unsupported format %q", format)
	}
	p.SetDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a page file.
func Load(path string) (*Page, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", path, err)
	}
	p, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// SetDefaults fills an empty viewport.
func (p *Page) SetDefaults() {
	if p.Viewport.Width <= 0 {
		p.Viewport.Width = widget.DefaultViewportWidth
	}
	if p.Viewport.Height <= 0 {
		p.Viewport.Height = widget.DefaultViewportHeight
	}
}

// Validate checks that the page has roots, that unit names are set and
// unique, and that every asset parses.
func (p *Page) Validate() error {
	if len(p.Roots) == 0 && len(p.Units) == 0 {
		return errors.New(errors.ErrCodeInvalidPage, "page has no roots and no units")
	}
	seen := make(map[string]bool)
	var check func(path string, units []Unit) error
	check = func(path string, units []Unit) error {
		for i := range units {
			u := &units[i]
			if u.Name == "" {
				return errors.New(errors.ErrCodeInvalidPage, "%sunits[%d]: name is required", path, i)
			}
			if seen[u.Name] {
				return errors.New(errors.ErrCodeInvalidPage, "duplicate unit %q", u.Name)
			}
			seen[u.Name] = true
			if len(u.Roots) == 0 {
				return errors.New(errors.ErrCodeInvalidPage, "unit %q has no roots", u.Name)
			}
			if _, err := u.ParsedAssets(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPage, err, "unit %q", u.Name)
			}
			if err := check(path+u.Name+".", u.Units); err != nil {
				return err
			}
		}
		return nil
	}
	return check("", p.Units)
}

package widget

import (
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
	"github.com/matzehuels/risekit/pkg/position"
)

// Config is the structural description of a widget subtree, as read from
// page files and applied by Render.
type Config struct {
	Type  string            `toml:"type" yaml:"type" json:"type"` // "ns.Name" or a core name
	Key   string            `toml:"key,omitempty" yaml:"key,omitempty" json:"key,omitempty"`
	Props map[string]any    `toml:"props,omitempty" yaml:"props,omitempty" json:"props,omitempty"`
	Style map[string]string `toml:"style,omitempty" yaml:"style,omitempty" json:"style,omitempty"`

	// Position is the strategy laying out this widget's children.
	Position *position.Spec `toml:"position,omitempty" yaml:"position,omitempty" json:"position,omitempty"`

	// Place is this widget's placement request in its parent.
	Place Placement `toml:"place,omitempty" yaml:"place,omitempty" json:"place,omitempty"`

	// On maps event names to command references ("name" or "name:a,b").
	On map[string]string `toml:"on,omitempty" yaml:"on,omitempty" json:"on,omitempty"`

	// OnLoad lists command references run once after hydration.
	OnLoad []string `toml:"on_load,omitempty" yaml:"on_load,omitempty" json:"on_load,omitempty"`

	// Links maps property names to the key of another widget in the same
	// tree. Forward references are allowed.
	Links map[string]string `toml:"links,omitempty" yaml:"links,omitempty" json:"links,omitempty"`

	// Host names the key of a descendant that hosts this widget's
	// children.
	Host string `toml:"host,omitempty" yaml:"host,omitempty" json:"host,omitempty"`

	Children []Config `toml:"children,omitempty" yaml:"children,omitempty" json:"children,omitempty"`
}

// Placement is the textual form of a position.Request.
type Placement struct {
	Left   string `toml:"left,omitempty" yaml:"left,omitempty" json:"left,omitempty"`
	Top    string `toml:"top,omitempty" yaml:"top,omitempty" json:"top,omitempty"`
	Width  string `toml:"width,omitempty" yaml:"width,omitempty" json:"width,omitempty"`
	Height string `toml:"height,omitempty" yaml:"height,omitempty" json:"height,omitempty"`
	Right  string `toml:"right,omitempty" yaml:"right,omitempty" json:"right,omitempty"`
	Bottom string `toml:"bottom,omitempty" yaml:"bottom,omitempty" json:"bottom,omitempty"`

	HAlign string `toml:"halign,omitempty" yaml:"halign,omitempty" json:"halign,omitempty"`
	VAlign string `toml:"valign,omitempty" yaml:"valign,omitempty" json:"valign,omitempty"`

	Cols int  `toml:"cols,omitempty" yaml:"cols,omitempty" json:"cols,omitempty"`
	Rows int  `toml:"rows,omitempty" yaml:"rows,omitempty" json:"rows,omitempty"`
	Col  *int `toml:"col,omitempty" yaml:"col,omitempty" json:"col,omitempty"`
	Row  *int `toml:"row,omitempty" yaml:"row,omitempty" json:"row,omitempty"`
}

// Request converts the placement to a position.Request.
func (p Placement) Request() (position.Request, error) {
	req := position.Request{
		HAlign: position.Alignment(p.HAlign),
		VAlign: position.Alignment(p.VAlign),
		Cols:   p.Cols,
		Rows:   p.Rows,
	}
	for e, s := range map[geometry.Edge]string{
		geometry.Left: p.Left, geometry.Top: p.Top, geometry.Width: p.Width,
		geometry.Height: p.Height, geometry.Right: p.Right, geometry.Bottom: p.Bottom,
	} {
		if s == "" {
			continue
		}
		m, err := geometry.ParseMeasure(s)
		if err != nil {
			return position.Request{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "place.%s", e)
		}
		req.Edges[e] = m
	}
	if p.Col != nil || p.Row != nil {
		c := position.Cell{}
		if p.Col != nil {
			c.Col = *p.Col
		}
		if p.Row != nil {
			c.Row = *p.Row
		}
		req.At = &c
	}
	return req, nil
}

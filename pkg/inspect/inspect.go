// Package inspect describes live widget trees for humans: flat outline rows
// for terminal views, markup queries mapped back to widgets, and Graphviz
// DOT export.
package inspect

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/matzehuels/risekit/pkg/dom"
	"github.com/matzehuels/risekit/pkg/geometry"
	"github.com/matzehuels/risekit/pkg/widget"
)

// Row is one widget in an outline.
type Row struct {
	Depth       int
	Node        *widget.Node
	Path        string
	Type        string
	State       string
	Bounds      geometry.Rect
	Strategy    string
	Children    int
	RenderIndex int
}

// Label returns the row's key, or its type name for unkeyed widgets,
// indented by depth.
func (r Row) Label() string {
	name := r.Node.Key
	if name == "" {
		name = r.Node.Type.Name
	}
	return strings.Repeat("  ", r.Depth) + name
}

// Rect formats the absolute bounds as "x,y wxh".
func (r Row) Rect() string {
	b := r.Bounds
	return fmt.Sprintf("%g,%g %gx%g", b.X, b.Y, b.W, b.H)
}

// Outline lists the widgets under roots in pre-order.
func Outline(roots ...*widget.Node) []Row {
	var rows []Row
	var walk func(n *widget.Node, depth int)
	walk = func(n *widget.Node, depth int) {
		rows = append(rows, Row{
			Depth:       depth,
			Node:        n,
			Path:        n.Path(),
			Type:        n.Type.FullName(),
			State:       n.State().String(),
			Bounds:      n.AbsBounds(),
			Strategy:    n.PackedStrategy(),
			Children:    len(n.Children()),
			RenderIndex: n.RenderIndex,
		})
		for _, c := range n.Children() {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
	return rows
}

// Match evaluates an XPath expression against doc and returns the widgets
// under roots whose elements matched, in document order. Matches that are
// not widget elements are ignored.
func Match(doc *html.Node, expr string, roots ...*widget.Node) ([]*widget.Node, error) {
	byElement := make(map[*html.Node]*widget.Node)
	for _, r := range roots {
		r.Walk(func(n *widget.Node) bool {
			if el := n.Element(); el != nil {
				byElement[el.Node()] = n
			}
			return true
		})
	}
	found, err := dom.Query(doc, expr)
	if err != nil {
		return nil, err
	}
	var out []*widget.Node
	for _, hn := range found {
		if n, ok := byElement[hn]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

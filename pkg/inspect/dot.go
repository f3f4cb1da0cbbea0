package inspect

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/risekit/pkg/widget"
)

// Options configures DOT export.
type Options struct {
	// Detailed adds type, bounds and strategy to node labels.
	Detailed bool

	// Links draws widget links as dashed edges.
	Links bool
}

// ToDOT converts the trees under roots to Graphviz DOT. Parent edges are
// solid; host delegation is drawn dotted.
func ToDOT(roots []*widget.Node, opts Options) string {
	ids := make(map[*widget.Node]string)
	rows := Outline(roots...)
	for i, r := range rows {
		ids[r.Node] = fmt.Sprintf("w%d", i)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph widgets {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for _, r := range rows {
		fmt.Fprintf(&buf, "  %s [%s];\n", ids[r.Node], strings.Join(nodeAttrs(r, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, r := range rows {
		n := r.Node
		if p := n.Parent(); p != nil {
			fmt.Fprintf(&buf, "  %s -> %s;\n", ids[p], ids[n])
		}
		if h := n.Host(); h != nil && h != n {
			fmt.Fprintf(&buf, "  %s -> %s [style=dotted, label=\"host\"];\n", ids[n], ids[h])
		}
		if !opts.Links {
			continue
		}
		links := n.Links()
		for _, name := range slices.Sorted(maps.Keys(links)) {
			if to, ok := ids[links[name]]; ok {
				fmt.Fprintf(&buf, "  %s -> %s [style=dashed, color=gray, label=%q];\n", ids[n], to, name)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(r Row, detailed bool) []string {
	label := r.Node.Key
	if label == "" {
		label = r.Node.Type.Name
	}
	if detailed {
		parts := []string{label, r.Type, r.Rect()}
		if r.Strategy != "" {
			parts = append(parts, r.Strategy)
		}
		label = strings.Join(parts, "\n")
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case r.State == widget.StateDestructed.String():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case r.Node.IsLeaf():
		attrs = append(attrs, "shape=ellipse")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

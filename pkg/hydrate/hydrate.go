package hydrate

import (
	"context"
	"slices"

	"golang.org/x/net/html"

	"github.com/matzehuels/risekit/pkg/dom"
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
	"github.com/matzehuels/risekit/pkg/pack"
	"github.com/matzehuels/risekit/pkg/widget"
)

// Result is the outcome of one hydration.
type Result struct {
	// Nodes holds the risen node of every info entry by render index. Slots
	// of unknown types and skipped elements are nil.
	Nodes []*widget.Node

	// Roots are the risen nodes without a live ancestor, in document order.
	Roots []*widget.Node

	// Errors collects every absorbed problem: structural mismatches,
	// unknown types and commands, malformed strategies, broken links and
	// failing on-load commands.
	Errors []error
}

// Node returns the node risen for render index i, or nil.
func (r *Result) Node(i int) *widget.Node {
	if i < 0 || i >= len(r.Nodes) {
		return nil
	}
	return r.Nodes[i]
}

// Live returns the number of risen nodes.
func (r *Result) Live() int {
	n := 0
	for _, node := range r.Nodes {
		if node != nil {
			n++
		}
	}
	return n
}

// Hydrate rebuilds the live widget tree of markup rooted at root from its
// info array. Existing elements are adopted in place; nothing is rendered.
//
// Marked elements are matched with info entries by render index in
// pre-order. An element without a matching entry is skipped; entries whose
// element is missing are skipped and matching resumes at the next marker.
// Entries of unregistered types leave a nil slot, and their descendants
// attach to the nearest live ancestor instead. Once every node exists, links and
// hosts are restored (so forward references work), strategies flagged for
// it re-actualize, and on-load commands run in render-index order.
//
// Problems are absorbed into Result.Errors. The returned error is non-nil
// only when ctx is cancelled; the partial result is returned with it.
func Hydrate(ctx context.Context, tree *widget.Tree, root *html.Node, infos []widget.Info) (*Result, error) {
	return hydrate(ctx, tree, nil, root, infos)
}

// Under hydrates like Hydrate but adopts the risen roots as children of
// parent instead of making them tree roots. Loaders use it to hang a
// nested unit below the widget it is mounted in.
func Under(ctx context.Context, parent *widget.Node, root *html.Node, infos []widget.Info) (*Result, error) {
	return hydrate(ctx, parent.Tree(), parent, root, infos)
}

func hydrate(ctx context.Context, tree *widget.Tree, parent *widget.Node, root *html.Node, infos []widget.Info) (*Result, error) {
	logger := tree.Logger()
	res := &Result{Nodes: make([]*widget.Node, len(infos))}
	fail := func(err error) {
		logger.Warn("hydrate", "err", err)
		res.Errors = append(res.Errors, err)
	}

	if marked := dom.Marked(root); len(marked) != len(infos) {
		fail(errors.New(errors.ErrCodeStructuralMismatch,
			"%d marked elements for %d info entries", len(marked), len(infos)))
	}

	cursor := 0
	var walkErr error
	dom.Walk(root, func(n *html.Node) bool {
		if walkErr = ctx.Err(); walkErr != nil {
			return false
		}
		if !dom.IsMarked(n) {
			return true
		}
		idx, ok := dom.Marker(n)
		switch {
		case !ok:
			fail(errors.New(errors.ErrCodeStructuralMismatch, "malformed marker on <%s>", n.Data))
			return true
		case idx < cursor:
			fail(errors.New(errors.ErrCodeStructuralMismatch, "element #%d out of order after #%d", idx, cursor-1))
			return true
		case idx >= len(infos) || infos[idx].RenderIndex != idx:
			fail(errors.New(errors.ErrCodeStructuralMismatch, "element #%d has no info entry", idx))
			return true
		case idx > cursor:
			// Entries in between lost their elements; resume at this one.
			for _, skipped := range infos[cursor:idx] {
				fail(errors.New(errors.ErrCodeStructuralMismatch, "entry #%d has no element", skipped.RenderIndex))
			}
			cursor = idx
		}
		in := infos[cursor]
		cursor++

		node, warnings, err := tree.Rise(dom.Wrap(n), in)
		for _, w := range warnings {
			fail(w)
		}
		if err != nil {
			fail(err)
			return true
		}
		res.Nodes[idx] = node
		switch p := nearestLive(res.Nodes, infos, in.Parent); {
		case p != nil:
			p.Adopt(node)
		case parent != nil:
			parent.Adopt(node)
			res.Roots = append(res.Roots, node)
		default:
			tree.AdoptRoot(node)
			res.Roots = append(res.Roots, node)
		}
		return true
	})
	if walkErr != nil {
		return res, walkErr
	}
	if cursor < len(infos) {
		fail(errors.New(errors.ErrCodeStructuralMismatch,
			"%d info entries without an element", len(infos)-cursor))
	}

	for _, n := range res.Nodes {
		if n == nil {
			continue
		}
		for _, err := range n.RestoreLinks(res.Node) {
			fail(err)
		}
	}

	for _, n := range res.Nodes {
		if n == nil {
			continue
		}
		if n.NeedsActualize() && n.Host() == n {
			n.Actualize()
			n.Sync()
		}
	}

	for _, n := range res.Nodes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if n == nil {
			continue
		}
		for _, err := range n.RunOnLoad(ctx) {
			fail(err)
		}
	}

	logger.Debug("hydrated", "entries", len(infos), "live", res.Live(), "errors", len(res.Errors))
	return res, nil
}

// Payload parses the markup of p and hydrates it.
func Payload(ctx context.Context, tree *widget.Tree, p *pack.Payload) (*Result, *html.Node, error) {
	root, err := p.Fragment()
	if err != nil {
		return nil, nil, err
	}
	res, err := Hydrate(ctx, tree, root, p.Info)
	return res, root, err
}

// nearestLive follows parent indices until it reaches a risen node.
func nearestLive(nodes []*widget.Node, infos []widget.Info, parent int) *widget.Node {
	for parent >= 0 && parent < len(nodes) {
		if n := nodes[parent]; n != nil {
			return n
		}
		parent = infos[parent].Parent
	}
	return nil
}

// =============================================================================
// Repack
// =============================================================================

// Encoded is the re-encoded state of one risen node.
type Encoded struct {
	RenderIndex int
	Strategy    string
	Priority    string
	Style       string
}

// Repack re-encodes the strategy, priority and style of every risen node
// without touching the tree. Hydrating a payload and repacking must yield
// the packed strings again.
func Repack(r *Result) []Encoded {
	var out []Encoded
	for i, n := range r.Nodes {
		if n == nil {
			continue
		}
		out = append(out, Encoded{
			RenderIndex: i,
			Strategy:    n.PackedStrategy(),
			Priority:    geometry.EncodePriority(n.Box()),
			Style:       n.StyleString(),
		})
	}
	return out
}

// Verify compares a repack of r against the info entries it was hydrated
// from and reports the render indices whose strategy or priority changed.
func Verify(infos []widget.Info, r *Result) error {
	var changed []int
	for _, e := range Repack(r) {
		in := infos[e.RenderIndex]
		if in.Strategy != e.Strategy || in.Priority != e.Priority {
			changed = append(changed, e.RenderIndex)
		}
	}
	if len(changed) > 0 {
		slices.Sort(changed)
		return errors.New(errors.ErrCodeStructuralMismatch, "repack differs at %v", changed)
	}
	return nil
}

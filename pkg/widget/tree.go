package widget

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/risekit/pkg/geometry"
	"github.com/matzehuels/risekit/pkg/handler"
	"github.com/matzehuels/risekit/pkg/position"
)

// Default viewport used when Options leave it empty.
const (
	DefaultViewportWidth  = 1280.0
	DefaultViewportHeight = 800.0
)

// Options configures a Tree.
type Options struct {
	Viewport geometry.Size
	Registry *Registry
	Handlers *handler.Table
	Logger   *log.Logger
}

// SetDefaults fills unset options.
func (o *Options) SetDefaults() {
	if o.Viewport.W <= 0 {
		o.Viewport.W = DefaultViewportWidth
	}
	if o.Viewport.H <= 0 {
		o.Viewport.H = DefaultViewportHeight
	}
	if o.Registry == nil {
		o.Registry = NewCoreRegistry()
	}
	if o.Handlers == nil {
		o.Handlers = handler.NewTable()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Tree is the per-application context of a widget tree: viewport, type
// registry, handler table, logger, the root nodes and the nodes waiting for
// their first display. It replaces process-wide registries; create one per
// application instance.
//
// Roots are positioned against the viewport by an Align strategy.
type Tree struct {
	viewport geometry.Size
	scroll   geometry.Size
	registry *Registry
	handlers *handler.Table
	logger   *log.Logger

	roots   []*Node
	rootPos position.Strategy
	pending []pendingShow
}

type pendingShow struct {
	node *Node
	fn   func(*Node)
}

// NewTree returns an empty tree.
func NewTree(opts Options) *Tree {
	opts.SetDefaults()
	t := &Tree{
		viewport: opts.Viewport,
		registry: opts.Registry,
		handlers: opts.Handlers,
		logger:   opts.Logger,
	}
	t.rootPos = position.NewAlign(position.AlignStart, position.AlignStart)
	t.rootPos.Init(rootContainer{t})
	return t
}

// Viewport returns the viewport size.
func (t *Tree) Viewport() geometry.Size { return t.viewport }

// Registry returns the type registry.
func (t *Tree) Registry() *Registry { return t.registry }

// Handlers returns the command table.
func (t *Tree) Handlers() *handler.Table { return t.handlers }

// Logger returns the tree's logger.
func (t *Tree) Logger() *log.Logger { return t.logger }

// Roots returns the root nodes in order.
func (t *Tree) Roots() []*Node { return slices.Clone(t.roots) }

// New creates a detached node of the named type ("ns.Name" or a core
// name).
func (t *Tree) New(typeName, key string) (*Node, error) {
	typ, err := t.registry.LookupName(typeName)
	if err != nil {
		return nil, err
	}
	n := newNode(t, typ)
	n.Key = key
	return n, nil
}

// AddRoot makes n a root placed against the viewport.
func (t *Tree) AddRoot(n *Node, req position.Request) error {
	if err := n.checkUsable(); err != nil {
		return err
	}
	if n.parent != nil {
		if err := n.parent.Remove(n); err != nil {
			return err
		}
	}
	if !t.isRoot(n) {
		t.roots = append(t.roots, n)
	}
	n.request = req
	t.rootPos.Allocate(n, req)
	return nil
}

// AdoptRoot makes a risen node a root without allocating it.
func (t *Tree) AdoptRoot(n *Node) {
	if !t.isRoot(n) {
		t.roots = append(t.roots, n)
	}
	n.bindStrategy()
}

func (t *Tree) isRoot(n *Node) bool { return slices.Contains(t.roots, n) }

func (t *Tree) dropRoot(n *Node) {
	if i := slices.Index(t.roots, n); i >= 0 {
		t.roots = slices.Delete(t.roots, i, i+1)
	}
}

// Walk visits every node of every root in pre-order.
func (t *Tree) Walk(fn func(*Node) bool) {
	for _, r := range t.roots {
		r.Walk(fn)
	}
}

// Find returns the first node keyed key across all roots.
func (t *Tree) Find(key string) *Node {
	for _, r := range t.roots {
		if n := r.Find(key); n != nil {
			return n
		}
	}
	return nil
}

// =============================================================================
// First-display callbacks
// =============================================================================

// WhenShown queues fn to run once n is visible. Nothing runs immediately:
// visibility is checked cooperatively by Poll, Scroll and Resize.
func (t *Tree) WhenShown(n *Node, fn func(*Node)) {
	t.pending = append(t.pending, pendingShow{node: n, fn: fn})
}

// Pending returns the number of queued first-display callbacks.
func (t *Tree) Pending() int { return len(t.pending) }

// Scroll moves the visible window to offset (x, y) and runs callbacks of
// nodes that became visible.
func (t *Tree) Scroll(x, y float64) int {
	t.scroll = geometry.Size{W: x, H: y}
	return t.Poll()
}

// Resize changes the viewport, re-actualizes every strategy top-down and
// runs callbacks of nodes that became visible.
func (t *Tree) Resize(size geometry.Size) int {
	t.viewport = size
	t.rootPos.Actualize(position.Change{Resized: true})
	t.Walk(func(n *Node) bool {
		if n.strategy != nil {
			n.strategy.Actualize(position.Change{Resized: true})
		}
		return true
	})
	return t.Poll()
}

// Poll runs the queued callbacks of live nodes that are now visible and
// returns how many ran. Callbacks of destructed nodes are dropped.
func (t *Tree) Poll() int {
	window := geometry.Rect{X: t.scroll.W, Y: t.scroll.H, W: t.viewport.W, H: t.viewport.H}
	var ready []pendingShow
	keep := t.pending[:0]
	for _, p := range t.pending {
		switch {
		case p.node.state == StateDestructed:
		case p.node.state == StateLive && p.node.visibleIn(window):
			ready = append(ready, p)
		default:
			keep = append(keep, p)
		}
	}
	t.pending = keep
	for _, p := range ready {
		p.fn(p.node)
	}
	return len(ready)
}

// visibleIn reports whether n is attached to a root and intersects window.
func (n *Node) visibleIn(window geometry.Rect) bool {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	if n.tree == nil || !n.tree.isRoot(root) {
		return false
	}
	return n.AbsBounds().Intersects(window)
}

// rootContainer presents the tree's roots to the root strategy.
type rootContainer struct{ t *Tree }

func (c rootContainer) ContentSize() geometry.Size { return c.t.viewport }

func (c rootContainer) Items() []position.Child {
	items := make([]position.Child, len(c.t.roots))
	for i, r := range c.t.roots {
		items[i] = r
	}
	return items
}

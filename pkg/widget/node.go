package widget

import (
	"context"
	"slices"

	"github.com/matzehuels/risekit/pkg/dom"
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
	"github.com/matzehuels/risekit/pkg/handler"
	"github.com/matzehuels/risekit/pkg/position"
)

// Node is a widget. Container types (Boxes) host children positioned by
// the node's strategy; leaf types (Rects) host none.
//
// A node may delegate hosting to a descendant (see SetHost): the node stays
// in the tree, but Add, Remove, Items and the strategy all act on the host.
type Node struct {
	Type  *Type
	Key   string
	Index int // disambiguates siblings sharing Key

	// RenderIndex is the pre-order position assigned by pack, or -1.
	RenderIndex int

	Props    map[string]any
	Style    map[string]string // inline style besides geometry
	Handlers map[string]handler.Ref
	OnLoad   []handler.Ref

	tree     *Tree
	parent   *Node
	children []*Node
	host     *Node
	strategy position.Strategy
	request  position.Request
	box      *geometry.Box
	el       *dom.Element
	state    State

	links        map[string]*Node
	pendingLinks map[string]int
	pendingHost  int
	keyLinks     map[string]string
	hostKey      string
	bound        map[string]handler.Bound
}

func newNode(t *Tree, typ *Type) *Node {
	n := &Node{
		Type:        typ,
		RenderIndex: -1,
		tree:        t,
		pendingHost: -1,
	}
	n.box = geometry.NewBox(n)
	return n
}

// Tree returns the tree the node belongs to.
func (n *Node) Tree() *Tree { return n.tree }

// State returns the lifecycle state.
func (n *Node) State() State { return n.state }

// Box returns the node's geometry.
func (n *Node) Box() *geometry.Box { return n.box }

// Element returns the node's element, or nil before it has one.
func (n *Node) Element() *dom.Element { return n.el }

// Parent returns the node whose children list holds n.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the hosted children in order. For a node delegating to
// a host, these are the node's own children, not the host's.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// Request returns the placement request n was last added with.
func (n *Node) Request() position.Request { return n.request }

// IsLeaf reports whether the node's type cannot host children.
func (n *Node) IsLeaf() bool { return n.Type != nil && n.Type.Leaf }

// Walk visits n and its descendants in pre-order. Returning false skips a
// node's descendants.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Find returns the first node in pre-order, n included, whose key is key.
func (n *Node) Find(key string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Key == key {
			found = c
			return false
		}
		return true
	})
	return found
}

// =============================================================================
// Layout
// =============================================================================

// ParentSize implements geometry.Frame.
func (n *Node) ParentSize() (geometry.Size, bool) {
	switch {
	case n.parent != nil:
		return n.parent.ContentSize(), true
	case n.tree != nil && n.tree.isRoot(n):
		return n.tree.Viewport(), true
	}
	return geometry.Size{}, false
}

// Bounds implements geometry.Frame: the live rectangle relative to the
// parent's content box. Detached nodes resolve against a zero size.
func (n *Node) Bounds() geometry.Rect {
	size, _ := n.ParentSize()
	return n.box.Resolve(size)
}

// ContentSize implements position.Container.
func (n *Node) ContentSize() geometry.Size {
	r := n.Bounds()
	return geometry.Size{W: r.W, H: r.H}
}

// AbsBounds returns the live rectangle in viewport coordinates.
func (n *Node) AbsBounds() geometry.Rect {
	r := n.Bounds()
	for p := n.parent; p != nil; p = p.parent {
		pr := p.Bounds()
		r = r.Translate(pr.X, pr.Y)
	}
	return r
}

// Items implements position.Container.
func (n *Node) Items() []position.Child {
	items := make([]position.Child, len(n.children))
	for i, c := range n.children {
		items[i] = c
	}
	return items
}

// =============================================================================
// Hosting
// =============================================================================

// Host returns the node that hosts n's children: n itself unless hosting
// was delegated.
func (n *Node) Host() *Node {
	if n.host != nil {
		return n.host
	}
	return n
}

// SetHost delegates child hosting to the descendant d. The chain is
// resolved once: if d itself delegates, n's host is d's host.
func (n *Node) SetHost(d *Node) error {
	if d == nil {
		n.host = nil
		return nil
	}
	if d == n || !n.isAncestorOf(d) {
		return errors.New(errors.ErrCodeInvalidInput, "host %q is not a descendant of %q", d.Key, n.Key)
	}
	h := d.Host()
	if h.IsLeaf() {
		return errors.New(errors.ErrCodeInvalidInput, "host %q cannot host children", h.Key)
	}
	n.host = h
	return nil
}

func (n *Node) isAncestorOf(d *Node) bool {
	for p := d.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Strategy returns the strategy of the host, creating a default Align
// strategy on first use.
func (n *Node) Strategy() position.Strategy {
	h := n.Host()
	if h.strategy == nil {
		h.strategy = position.NewAlign(position.AlignStart, position.AlignStart)
		h.strategy.Init(h)
	}
	return h.strategy
}

// PackedStrategy returns the encoded strategy of n's own children, or ""
// when none was ever set. A delegating node's host packs its own.
func (n *Node) PackedStrategy() string {
	if n.strategy != nil {
		return n.strategy.Encode()
	}
	return ""
}

// NeedsActualize reports whether n's own strategy asks for one more pass
// after hydration.
func (n *Node) NeedsActualize() bool {
	return n.strategy != nil && n.strategy.NeedsActualize()
}

// SetStrategy replaces the host's strategy. The old strategy is discarded,
// never reused; every child is allocated again under the new one.
func (n *Node) SetStrategy(s position.Strategy) error {
	if err := n.checkUsable(); err != nil {
		return err
	}
	h := n.Host()
	if h.IsLeaf() {
		return errors.New(errors.ErrCodeInvalidInput, "%s cannot host children", h.describe())
	}
	if h.strategy != nil {
		h.strategy.OnCleared()
	}
	h.strategy = s
	if s == nil {
		return nil
	}
	s.Init(h)
	for _, c := range h.children {
		s.Allocate(c, c.request)
	}
	return nil
}

// =============================================================================
// Structure
// =============================================================================

// Add appends child to the host and lets the strategy place it.
func (n *Node) Add(child *Node, req position.Request) error {
	if err := n.checkUsable(); err != nil {
		return err
	}
	if err := child.checkUsable(); err != nil {
		return err
	}
	h := n.Host()
	if h.IsLeaf() {
		return errors.New(errors.ErrCodeInvalidInput, "%s cannot host children", h.describe())
	}
	if child == h || child.isAncestorOf(h) {
		return errors.New(errors.ErrCodeInvalidInput, "adding %s would create a cycle", child.describe())
	}
	if child.parent != nil {
		if err := child.parent.Remove(child); err != nil {
			return err
		}
	} else if n.tree != nil {
		n.tree.dropRoot(child)
	}

	child.Index = h.nextIndex(child.Key)
	child.request = req
	h.children = append(h.children, child)
	child.parent = h
	if h.el != nil && child.el != nil {
		h.el.AppendChild(child.el)
	}
	h.Strategy().Allocate(child, req)
	return nil
}

// Adopt attaches a risen child without allocating: its geometry was
// restored from markup. The child's own strategy is bound afterwards, when
// its content size is known.
func (n *Node) Adopt(child *Node) {
	h := n.Host()
	h.children = append(h.children, child)
	child.parent = h
	child.bindStrategy()
}

func (n *Node) bindStrategy() {
	if n.strategy != nil {
		n.strategy.Init(n)
	}
}

// nextIndex returns the disambiguation index for a new child keyed key.
func (n *Node) nextIndex(key string) int {
	if key == "" {
		return 0
	}
	idx, seen := 0, false
	for _, c := range n.children {
		if c.Key == key {
			seen = true
			idx = max(idx, c.Index+1)
		}
	}
	if !seen {
		return 0
	}
	return idx
}

// Child returns the child with key and index.
func (n *Node) Child(key string, index int) *Node {
	for _, c := range n.Host().children {
		if c.Key == key && c.Index == index {
			return c
		}
	}
	return nil
}

// Remove detaches child from the host. The strategy is notified while the
// child is still listed, then re-actualizes. The child's element leaves the
// document.
func (n *Node) Remove(child *Node) error {
	h := n.Host()
	i := slices.Index(h.children, child)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "%s is not a child of %s", child.describe(), h.describe())
	}
	s := h.strategy
	if s != nil {
		s.OnElementRemoved(child)
	}
	h.children = slices.Delete(h.children, i, i+1)
	child.parent = nil
	if child.el != nil {
		child.el.Remove()
	}
	if s != nil {
		s.Actualize(position.Change{Removed: child})
	}
	return nil
}

// Clear removes all children of the host and resets the strategy.
func (n *Node) Clear() {
	h := n.Host()
	for _, c := range h.children {
		c.parent = nil
		if c.el != nil {
			c.el.Remove()
		}
	}
	h.children = nil
	if h.strategy != nil {
		h.strategy.OnCleared()
	}
}

// Actualize asks the host's strategy to re-derive every child's geometry.
func (n *Node) Actualize() {
	if s := n.Host().strategy; s != nil {
		s.Actualize(position.Change{Resized: true})
	}
}

// =============================================================================
// Links and handlers
// =============================================================================

// Link stores a weak reference to another node under name.
func (n *Node) Link(name string, target *Node) {
	if n.links == nil {
		n.links = make(map[string]*Node)
	}
	n.links[name] = target
}

// Linked returns the node linked under name.
func (n *Node) Linked(name string) *Node { return n.links[name] }

// Links returns a copy of the resolved links.
func (n *Node) Links() map[string]*Node {
	if len(n.links) == 0 {
		return nil
	}
	out := make(map[string]*Node, len(n.links))
	for k, v := range n.links {
		out[k] = v
	}
	return out
}

// On binds an event to a command reference.
func (n *Node) On(event string, ref handler.Ref) {
	if n.Handlers == nil {
		n.Handlers = make(map[string]handler.Ref)
	}
	n.Handlers[event] = ref
	delete(n.bound, event)
}

// Fire invokes the command bound to event. Unbound references are resolved
// through the tree's handler table on first use.
func (n *Node) Fire(ctx context.Context, event string) error {
	if n.state == StateDestructed {
		return errors.New(errors.ErrCodeInvalidState, "fire %q on destructed %s", event, n.describe())
	}
	b, ok := n.bound[event]
	if !ok {
		ref, has := n.Handlers[event]
		if !has {
			return errors.New(errors.ErrCodeNotFound, "%s has no handler for %q", n.describe(), event)
		}
		var err error
		if b, err = n.tree.Handlers().Resolve(ref); err != nil {
			return err
		}
		if n.bound == nil {
			n.bound = make(map[string]handler.Bound)
		}
		n.bound[event] = b
	}
	return b.Invoke(ctx, event, n)
}

// RunOnLoad invokes the node's on-load commands in order. Unknown commands
// are skipped; all errors are returned joined.
func (n *Node) RunOnLoad(ctx context.Context) []error {
	var errs []error
	for _, ref := range n.OnLoad {
		b, err := n.tree.Handlers().Resolve(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := b.Invoke(ctx, "load", n); err != nil {
			errs = append(errs, errors.Wrap(errors.ErrCodeInternal, err, "on-load %s of %s", ref, n.describe()))
		}
	}
	return errs
}

func (n *Node) describe() string {
	name := "?"
	if n.Type != nil {
		name = n.Type.FullName()
	}
	if n.Key != "" {
		return name + "(" + n.Key + ")"
	}
	return name
}

func (n *Node) checkUsable() error {
	if n.state == StateDestructed {
		return errors.New(errors.ErrCodeInvalidState, "%s is destructed", n.describe())
	}
	return nil
}

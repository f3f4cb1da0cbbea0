package widget

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/risekit/pkg/dom"
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
	"github.com/matzehuels/risekit/pkg/handler"
	"github.com/matzehuels/risekit/pkg/position"
)

// State is a node's lifecycle state.
//
//	Constructed ──pack──▶ Packed            (server)
//	Constructed ──activate/rise──▶ Live     (client)
//	any ──destruct──▶ Destructed
type State int

const (
	StateConstructed State = iota
	StatePacked
	StateLive
	StateDestructed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StatePacked:
		return "packed"
	case StateLive:
		return "live"
	case StateDestructed:
		return "destructed"
	}
	return "unknown"
}

var transitions = map[State][]State{
	StateConstructed: {StatePacked, StateLive, StateDestructed},
	StatePacked:      {StatePacked, StateDestructed},
	StateLive:        {StateDestructed},
}

func (n *Node) transition(to State) error {
	if !slices.Contains(transitions[n.state], to) {
		return errors.New(errors.ErrCodeInvalidState, "%s: illegal transition %s -> %s", n.describe(), n.state, to)
	}
	n.state = to
	return nil
}

// =============================================================================
// Render
// =============================================================================

// Render applies cfg to n: key, properties, style, handlers, the children's
// strategy, then builds and adds every child. Links are recorded by key and
// resolved by Tree.Build once the whole tree exists.
func (n *Node) Render(cfg Config) error {
	if err := n.checkUsable(); err != nil {
		return err
	}
	if cfg.Key != "" {
		if err := errors.ValidateKey(cfg.Key); err != nil {
			return err
		}
		n.Key = cfg.Key
	}
	for k, v := range cfg.Props {
		if IsReserved(k) {
			return errors.New(errors.ErrCodeInvalidInput, "%s: property %q uses a reserved name", n.describe(), k)
		}
		if n.Props == nil {
			n.Props = make(map[string]any)
		}
		n.Props[k] = v
	}
	for k, v := range cfg.Style {
		if _, isEdge := geometry.EdgeByName(k); isEdge || k == "position" {
			return errors.New(errors.ErrCodeInvalidInput, "%s: style %q is owned by the layout", n.describe(), k)
		}
		if n.Style == nil {
			n.Style = make(map[string]string)
		}
		n.Style[k] = v
	}
	for ev, s := range cfg.On {
		ref, err := handler.ParseRef(s)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s: handler %q", n.describe(), ev)
		}
		n.On(ev, ref)
	}
	for _, s := range cfg.OnLoad {
		ref, err := handler.ParseRef(s)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s: on_load", n.describe())
		}
		n.OnLoad = append(n.OnLoad, ref)
	}
	if cfg.Position != nil {
		s, err := position.New(*cfg.Position)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidStrategy, err, "%s: position", n.describe())
		}
		if err := n.SetStrategy(s); err != nil {
			return err
		}
	}
	for _, cc := range cfg.Children {
		child, req, err := n.tree.fromConfig(cc)
		if err != nil {
			return err
		}
		if err := n.Add(child, req); err != nil {
			return err
		}
		if err := child.Render(cc); err != nil {
			return err
		}
	}
	if len(cfg.Links) > 0 || cfg.Host != "" {
		n.keyLinks = maps.Clone(cfg.Links)
		n.hostKey = cfg.Host
	}
	return nil
}

// fromConfig creates the bare node for cfg and parses its placement.
// Rendering happens once the node is placed, so that children are laid out
// against a sized container.
func (t *Tree) fromConfig(cfg Config) (*Node, position.Request, error) {
	typ := cfg.Type
	if typ == "" {
		typ = TypeBox
	}
	n, err := t.New(typ, cfg.Key)
	if err != nil {
		return nil, position.Request{}, err
	}
	req, err := cfg.Place.Request()
	if err != nil {
		return nil, position.Request{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", n.describe())
	}
	return n, req, nil
}

// Build creates a root from cfg, places it against the viewport, renders
// it and resolves key links and hosts across the finished subtree. On
// error the partial subtree is destructed.
func (t *Tree) Build(cfg Config) (*Node, error) {
	n, req, err := t.fromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := t.AddRoot(n, req); err != nil {
		return nil, err
	}
	if err := n.Render(cfg); err != nil {
		n.Destruct()
		return nil, err
	}
	var linkErr error
	n.Walk(func(c *Node) bool {
		if linkErr == nil {
			linkErr = c.resolveKeyLinks(n)
		}
		return linkErr == nil
	})
	if linkErr != nil {
		n.Destruct()
		return nil, linkErr
	}
	return n, nil
}

func (n *Node) resolveKeyLinks(root *Node) error {
	for _, name := range slices.Sorted(maps.Keys(n.keyLinks)) {
		key := n.keyLinks[name]
		target := root.Find(key)
		if target == nil {
			target = n.tree.Find(key)
		}
		if target == nil {
			return errors.New(errors.ErrCodeNotFound, "%s: link %q: no widget keyed %q", n.describe(), name, key)
		}
		n.Link(name, target)
	}
	n.keyLinks = nil
	if n.hostKey != "" {
		h := n.Find(n.hostKey)
		if h == nil {
			return errors.New(errors.ErrCodeNotFound, "%s: host: no descendant keyed %q", n.describe(), n.hostKey)
		}
		if err := n.SetHost(h); err != nil {
			return err
		}
		n.hostKey = ""
	}
	return nil
}

// =============================================================================
// Elements
// =============================================================================

// Materialize creates the elements of n's subtree where missing, nests
// every child element inside its host's element in child order and writes
// styles. Element pre-order then matches node pre-order.
func (n *Node) Materialize() *dom.Element {
	if n.el == nil {
		n.el = dom.New(n.Type.tag())
		if n.Type.Class != "" {
			n.el.SetAttr(dom.AttrClass, n.Type.Class)
		}
		if n.Type.Draw != nil {
			n.Type.Draw(n, n.el)
		}
	}
	n.el.SetStyle(n.StyleString())
	for _, c := range n.children {
		n.el.AppendChild(c.Materialize())
	}
	return n.el
}

// StyleString returns the inline style: geometry first, then the extra
// properties sorted by name.
func (n *Node) StyleString() string {
	s := geometry.FormatStyle(n.box)
	if len(n.Style) > 0 {
		s += ";" + geometry.SortedStyle(n.Style)
	}
	return s
}

// Sync writes the current geometry of n's subtree into existing elements.
func (n *Node) Sync() {
	n.Walk(func(c *Node) bool {
		if c.el != nil {
			c.el.SetStyle(c.StyleString())
		}
		return true
	})
}

// =============================================================================
// Server: pack
// =============================================================================

// MarkPacked records the render index assigned by the packer. Constructed
// nodes become Packed; live nodes keep their state so a hydrated tree can
// be packed again.
func (n *Node) MarkPacked(renderIndex int) error {
	switch n.state {
	case StateDestructed:
		return errors.New(errors.ErrCodeInvalidState, "%s: cannot pack a destructed node", n.describe())
	case StateConstructed, StatePacked:
		if err := n.transition(StatePacked); err != nil {
			return err
		}
	}
	n.RenderIndex = renderIndex
	return nil
}

// PackInfo describes n for the info array. The render indices of n, its
// parent, its host and its link targets must already be assigned.
func (n *Node) PackInfo() (Info, error) {
	in := Info{
		Type:        n.Type.Name,
		Namespace:   n.Type.Namespace,
		Key:         n.Key,
		Index:       n.Index,
		RenderIndex: n.RenderIndex,
		Parent:      -1,
		Host:        -1,
		Strategy:    n.PackedStrategy(),
		Priority:    geometry.EncodePriority(n.box),
	}
	if n.parent != nil {
		in.Parent = n.parent.RenderIndex
	}
	if n.host != nil {
		if n.host.RenderIndex < 0 {
			return Info{}, errors.New(errors.ErrCodeInvalidState, "%s: host is not packed", n.describe())
		}
		in.Host = n.host.RenderIndex
	}
	if len(n.Props) > 0 {
		in.Props = maps.Clone(n.Props)
	}
	if len(n.Handlers) > 0 {
		in.Handlers = make(map[string]string, len(n.Handlers))
		for ev, ref := range n.Handlers {
			in.Handlers[ev] = ref.String()
		}
	}
	for _, ref := range n.OnLoad {
		in.OnLoad = append(in.OnLoad, ref.String())
	}
	for name, target := range n.links {
		if target == nil || target.RenderIndex < 0 || target.state == StateDestructed {
			return Info{}, errors.New(errors.ErrCodeInvalidState, "%s: link %q points outside the packed tree", n.describe(), name)
		}
		if in.Links == nil {
			in.Links = make(map[string]int, len(n.links))
		}
		in.Links[name] = target.RenderIndex
	}
	return in, nil
}

// =============================================================================
// Client: activate and rise
// =============================================================================

// Activate takes a client-built subtree live: elements are created, the
// subtree's root element is appended to mount (when given), handlers are
// bound and first-display callbacks queued. Unknown handler commands are
// returned as warnings.
func (n *Node) Activate(mount *dom.Element) ([]error, error) {
	if n.state != StateConstructed {
		return nil, errors.New(errors.ErrCodeInvalidState, "%s: activate from state %s", n.describe(), n.state)
	}
	el := n.Materialize()
	if mount != nil {
		mount.AppendChild(el)
	}
	var warnings []error
	var err error
	n.Walk(func(c *Node) bool {
		if err != nil {
			return false
		}
		if err = c.transition(StateLive); err != nil {
			return false
		}
		warnings = append(warnings, c.bindHandlers()...)
		c.queueShow()
		return true
	})
	return warnings, err
}

// Rise builds a live node around an existing element from its info entry.
// The element is reused as is; nothing is created. An unregistered type
// fails with ErrCodeUnknownType and an element no longer in a document
// with ErrCodeStaleTarget. Recoverable problems (malformed strategy or
// priority strings, unknown commands) are returned as warnings. The
// decoded strategy is bound once the node is adopted.
func (t *Tree) Rise(el *dom.Element, in Info) (*Node, []error, error) {
	typ, err := t.registry.Lookup(in.Namespace, in.Type)
	if err != nil {
		return nil, nil, err
	}
	if el == nil || el.Detached() {
		return nil, nil, errors.New(errors.ErrCodeStaleTarget, "element of %s #%d is no longer attached", typ.FullName(), in.RenderIndex)
	}

	n := newNode(t, typ)
	n.Key = in.Key
	n.Index = in.Index
	n.RenderIndex = in.RenderIndex
	n.el = el

	var warnings []error
	extra, err := geometry.ParseStyle(n.box, el.Style())
	if err != nil {
		warnings = append(warnings, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s: style", n.describe()))
	}
	n.Style = extra
	if err := geometry.DecodePriority(n.box, in.Priority); err != nil {
		warnings = append(warnings, errors.Wrap(errors.ErrCodeInvalidPriority, err, "%s: priority", n.describe()))
	}
	if in.Strategy != "" {
		s, err := position.Decode(in.Strategy)
		if err != nil {
			warnings = append(warnings, err)
		}
		n.strategy = s
	}
	for k, v := range in.Props {
		if IsReserved(k) {
			continue
		}
		if n.Props == nil {
			n.Props = make(map[string]any, len(in.Props))
		}
		n.Props[k] = v
	}
	for _, ev := range slices.Sorted(maps.Keys(in.Handlers)) {
		ref, err := handler.ParseRef(in.Handlers[ev])
		if err != nil {
			warnings = append(warnings, errors.Wrap(errors.ErrCodeUnknownCommand, err, "%s: handler %q", n.describe(), ev))
			continue
		}
		n.On(ev, ref)
	}
	for _, s := range in.OnLoad {
		ref, err := handler.ParseRef(s)
		if err != nil {
			warnings = append(warnings, errors.Wrap(errors.ErrCodeUnknownCommand, err, "%s: on-load", n.describe()))
			continue
		}
		n.OnLoad = append(n.OnLoad, ref)
	}
	if len(in.Links) > 0 {
		n.pendingLinks = maps.Clone(in.Links)
	}
	n.pendingHost = in.Host

	n.state = StateLive
	warnings = append(warnings, n.bindHandlers()...)
	n.queueShow()
	return n, warnings, nil
}

func (n *Node) bindHandlers() []error {
	var errs []error
	for _, ev := range slices.Sorted(maps.Keys(n.Handlers)) {
		b, err := n.tree.handlers.Resolve(n.Handlers[ev])
		if err != nil {
			errs = append(errs, errors.Wrap(errors.ErrCodeUnknownCommand, err, "%s: handler %q", n.describe(), ev))
			continue
		}
		if n.bound == nil {
			n.bound = make(map[string]handler.Bound)
		}
		n.bound[ev] = b
	}
	return errs
}

func (n *Node) queueShow() {
	if n.Type.OnShow != nil {
		n.tree.WhenShown(n, n.Type.OnShow)
	}
}

// RestoreLinks resolves the render-index links and host recorded by Rise.
// It must run after every node of the payload exists, since links may
// point forward. lookup returns nil for indices without a live node.
func (n *Node) RestoreLinks(lookup func(renderIndex int) *Node) []error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(n.pendingLinks)) {
		idx := n.pendingLinks[name]
		target := lookup(idx)
		if target == nil {
			errs = append(errs, errors.New(errors.ErrCodeNotFound, "%s: link %q: no live widget #%d", n.describe(), name, idx))
			continue
		}
		n.Link(name, target)
	}
	n.pendingLinks = nil
	if n.pendingHost >= 0 {
		if h := lookup(n.pendingHost); h == nil {
			errs = append(errs, errors.New(errors.ErrCodeNotFound, "%s: host #%d is not live", n.describe(), n.pendingHost))
		} else if err := n.SetHost(h); err != nil {
			errs = append(errs, err)
		}
		n.pendingHost = -1
	}
	return errs
}

// =============================================================================
// Destruct
// =============================================================================

// Destruct tears n's subtree down: n leaves its parent (whose strategy is
// notified), children are destructed depth-first, the parent reference is
// severed, the strategy released, and the element detached last.
func (n *Node) Destruct() {
	if n.state == StateDestructed {
		return
	}
	if p := n.parent; p != nil {
		if s := p.strategy; s != nil {
			s.OnElementRemoved(n)
		}
		if i := slices.Index(p.children, n); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
		if s := p.strategy; s != nil {
			s.Actualize(position.Change{Removed: n})
		}
	} else if n.tree != nil {
		n.tree.dropRoot(n)
	}
	n.destruct()
	if n.el != nil {
		n.el.Remove()
	}
}

func (n *Node) destruct() {
	for _, c := range slices.Clone(n.children) {
		c.destruct()
	}
	n.children = nil
	n.parent = nil
	n.host = nil
	if n.strategy != nil {
		n.strategy.OnCleared()
		n.strategy = nil
	}
	n.links = nil
	n.bound = nil
	if n.Type.OnDestruct != nil {
		n.Type.OnDestruct(n)
	}
	n.state = StateDestructed
}

// Path returns the keys from the root to n joined by '/'. Unkeyed nodes
// appear as their type name.
func (n *Node) Path() string {
	var parts []string
	for c := n; c != nil; c = c.parent {
		seg := c.Key
		if seg == "" {
			seg = c.Type.Name
		}
		parts = append(parts, seg)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

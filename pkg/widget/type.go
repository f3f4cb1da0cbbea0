package widget

import (
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/risekit/pkg/dom"
	"github.com/matzehuels/risekit/pkg/errors"
)

// CoreNamespace is the namespace of the built-in types and the default for
// type names given without one.
const CoreNamespace = "core"

// Type describes a kind of widget.
type Type struct {
	Namespace string
	Name      string

	// Tag is the element name, "div" when empty.
	Tag string

	// Class is written to the element's class attribute.
	Class string

	// Leaf types (Rects) cannot host children. Container types are Boxes.
	Leaf bool

	// Draw fills a freshly created element with the widget's content.
	Draw func(n *Node, el *dom.Element)

	// OnShow runs once, the first time a live node of this type is
	// visible in the viewport.
	OnShow func(n *Node)

	// OnDestruct runs during Destruct, after the node's children are gone
	// and before its element is detached.
	OnDestruct func(n *Node)
}

// FullName returns "namespace.Name".
func (t *Type) FullName() string {
	return t.Namespace + "." + t.Name
}

func (t *Type) tag() string {
	if t.Tag == "" {
		return "div"
	}
	return t.Tag
}

// sameAs reports whether two registrations describe the same type. Hooks
// are functions and cannot be compared, so only the declarative fields
// count.
func (t *Type) sameAs(o *Type) bool {
	return t == o || (t.Namespace == o.Namespace && t.Name == o.Name &&
		t.tag() == o.tag() && t.Class == o.Class && t.Leaf == o.Leaf)
}

// SplitTypeName splits "ns.Name" into its parts. A name without a
// namespace belongs to CoreNamespace.
func SplitTypeName(full string) (ns, name string) {
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		return full[:i], full[i+1:]
	}
	return CoreNamespace, full
}

// Registry resolves type names. One registry is created per application
// and shared by its trees.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// NewCoreRegistry returns a registry holding the built-in types.
func NewCoreRegistry() *Registry {
	r := NewRegistry()
	for _, t := range Builtins() {
		_ = r.Register(t)
	}
	return r
}

// Register adds t. Registering the same type again is a no-op; a
// different type under a taken name is an error.
func (r *Registry) Register(t *Type) error {
	if t == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil type")
	}
	if t.Namespace == "" {
		t.Namespace = CoreNamespace
	}
	if err := errors.ValidateTypeName(t.Namespace); err != nil {
		return err
	}
	if err := errors.ValidateTypeName(t.Name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := t.FullName()
	if old, ok := r.types[key]; ok {
		if old.sameAs(t) {
			return nil
		}
		return errors.New(errors.ErrCodeInvalidInput, "conflicting registration for type %s", key)
	}
	r.types[key] = t
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(t *Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the type registered under namespace and name. An empty
// namespace means CoreNamespace.
func (r *Registry) Lookup(namespace, name string) (*Type, error) {
	if namespace == "" {
		namespace = CoreNamespace
	}
	r.mu.RLock()
	t, ok := r.types[namespace+"."+name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownType, "unknown widget type %s.%s", namespace, name)
	}
	return t, nil
}

// LookupName resolves "ns.Name" or a bare core name.
func (r *Registry) LookupName(full string) (*Type, error) {
	ns, name := SplitTypeName(full)
	return r.Lookup(ns, name)
}

// Names returns the full names of all registered types, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.types))
	for k := range r.types {
		names = append(names, k)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// =============================================================================
// Built-in types
// =============================================================================

// Built-in type names.
const (
	TypeBox   = "Box"
	TypeRect  = "Rect"
	TypeLabel = "Label"
	TypePanel = "Panel"
)

// Builtins returns fresh copies of the built-in types: Box (generic
// container), Rect (generic leaf), Label (leaf drawing its "text" property)
// and Panel (sectioning container).
func Builtins() []*Type {
	return []*Type{
		{Namespace: CoreNamespace, Name: TypeBox},
		{Namespace: CoreNamespace, Name: TypeRect, Leaf: true},
		{Namespace: CoreNamespace, Name: TypeLabel, Tag: "span", Leaf: true, Draw: drawLabel},
		{Namespace: CoreNamespace, Name: TypePanel, Tag: "section", Class: "panel"},
	}
}

func drawLabel(n *Node, el *dom.Element) {
	if s, ok := n.Props["text"].(string); ok {
		el.SetText(s)
	}
}

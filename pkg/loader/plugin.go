package loader

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/risekit/pkg/dom"
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/hydrate"
	"github.com/matzehuels/risekit/pkg/widget"
)

// Hooks are the lifecycle callbacks of a plugin. After the unit hydrates
// they run in the order BeforeRender, BeforeRun, Run; an error stops the
// sequence and tears the unit down. Destroy runs before the unit's widgets
// are destructed. Every hook is optional.
type Hooks struct {
	BeforeRender func(ctx context.Context, p *Plugin) error
	BeforeRun    func(ctx context.Context, p *Plugin) error
	Run          func(ctx context.Context, p *Plugin) error
	Destroy      func(p *Plugin)
}

// Registry maps plugin names to their hooks. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string]Hooks
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]Hooks)}
}

// Register adds the hooks of plugin name.
func (r *Registry) Register(name string, h Hooks) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "plugin name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hooks[name]; ok {
		return errors.New(errors.ErrCodeInvalidInput, "plugin %q already registered", name)
	}
	r.hooks[name] = h
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, h Hooks) {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
}

// Lookup returns the hooks of plugin name.
func (r *Registry) Lookup(name string) (Hooks, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hooks[name]
	if !ok {
		return Hooks{}, errors.New(errors.ErrCodeNotFound, "plugin %q is not registered", name)
	}
	return h, nil
}

// Plugin is a loaded unit. Its Handle is the target snippet code commands
// are invoked with.
type Plugin struct {
	Handle uuid.UUID
	Name   string

	loader *Loader
	hooks  Hooks
	mount  *dom.Element
	result *hydrate.Result
	roots  []*widget.Node

	mu        sync.Mutex
	nested    []*Plugin
	errs      []error
	destroyed bool
}

// Roots returns the unit's top-level widgets.
func (p *Plugin) Roots() []*widget.Node { return slices.Clone(p.roots) }

// Result returns the hydration result of the unit.
func (p *Plugin) Result() *hydrate.Result { return p.result }

// Mount returns the element the unit's markup was appended to.
func (p *Plugin) Mount() *dom.Element { return p.mount }

// Node returns the first widget keyed key in the unit.
func (p *Plugin) Node(key string) *widget.Node {
	for _, r := range p.roots {
		if n := r.Find(key); n != nil {
			return n
		}
	}
	return nil
}

// Nested returns the nested units that loaded, in completion order.
func (p *Plugin) Nested() []*Plugin {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.nested)
}

// Errors returns the problems absorbed while loading the unit and its
// nested units: hydration problems, failing snippet code, nested units that
// did not load.
func (p *Plugin) Errors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.errs)
}

func (p *Plugin) addError(err error) {
	p.mu.Lock()
	p.errs = append(p.errs, err)
	p.mu.Unlock()
}

func (p *Plugin) addNested(c *Plugin) {
	p.mu.Lock()
	p.nested = append(p.nested, c)
	p.mu.Unlock()
}

// Destroyed reports whether Destroy has run.
func (p *Plugin) Destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// Destroy tears the unit down: nested units first, then the Destroy hook,
// then every root widget (which removes its markup last). Destroying twice
// is a no-op.
func (p *Plugin) Destroy() {
	p.loader.mu.Lock()
	defer p.loader.mu.Unlock()
	p.destroy()
}

// destroy requires the loader's hydration lock.
func (p *Plugin) destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	nested := slices.Clone(p.nested)
	p.mu.Unlock()

	for i := len(nested) - 1; i >= 0; i-- {
		nested[i].destroy()
	}
	if p.hooks.Destroy != nil {
		p.hooks.Destroy(p)
	}
	for _, r := range p.roots {
		r.Destruct()
	}
	p.loader.forget(p)
}

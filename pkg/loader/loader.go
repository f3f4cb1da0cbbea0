// Package loader brings snippet and plugin units to life.
//
// A unit is a packed subtree ([Descriptor]) with its own asset manifest and
// optional nested units. Loading one runs a fixed sequence:
//
//  1. wait for every asset through the asset barrier (skipped when the
//     manifest is empty), bounded by Options.AssetTimeout
//  2. hydrate the markup and mount it, holding the hydration lock so a
//     unit's subtree rises atomically
//  3. run the plugin hooks BeforeRender, BeforeRun and Run
//  4. run the snippet code commands against a fresh plugin handle
//  5. load nested units concurrently, each repeating the sequence
//
// Sibling units therefore complete in asset order, not document order.
package loader

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/risekit/pkg/asset"
	"github.com/matzehuels/risekit/pkg/dom"
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/handler"
	"github.com/matzehuels/risekit/pkg/hydrate"
	"github.com/matzehuels/risekit/pkg/observability"
	"github.com/matzehuels/risekit/pkg/widget"
)

const (
	// DefaultAssetTimeout bounds the asset barrier when Options leave it
	// zero.
	DefaultAssetTimeout = 30 * time.Second

	// NoTimeout makes the barrier wait until every asset settles or the
	// load context ends.
	NoTimeout time.Duration = -1
)

// Options configures a Loader.
type Options struct {
	// Tree receives the hydrated widgets. Required.
	Tree *widget.Tree

	// Assets resolves asset manifests. Units with assets fail to load
	// when it is nil.
	Assets asset.Service

	// Plugins holds the lifecycle hooks named by descriptors.
	Plugins *Registry

	// AssetTimeout bounds each unit's asset barrier. Zero means
	// DefaultAssetTimeout; NoTimeout disables the bound.
	AssetTimeout time.Duration

	// Document is the page mounts must belong to. When set, a mount that
	// left it is stale and the unit fails instead of hydrating.
	Document *html.Node

	// Sanitize strips scripts and unknown attributes from unit markup
	// before hydration. Marker, class and style attributes survive.
	Sanitize bool

	Hooks  observability.Hooks
	Logger *log.Logger
}

// SetDefaults fills unset options.
func (o *Options) SetDefaults() {
	if o.Plugins == nil {
		o.Plugins = NewRegistry()
	}
	if o.AssetTimeout == 0 {
		o.AssetTimeout = DefaultAssetTimeout
	}
	o.Hooks.SetDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks required options.
func (o *Options) Validate() error {
	if o.Tree == nil {
		return errors.New(errors.ErrCodeInvalidInput, "loader needs a widget tree")
	}
	return nil
}

// Loader loads units into one widget tree. Hydration, hooks and snippet
// code of all units are serialized by a single lock; only asset waits run
// concurrently.
type Loader struct {
	opts   Options
	policy *bluemonday.Policy

	// mu is the hydration lock. It guards the tree.
	mu sync.Mutex

	pmu     sync.Mutex
	plugins map[uuid.UUID]*Plugin
}

// New returns a loader.
func New(opts Options) (*Loader, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	l := &Loader{opts: opts, plugins: make(map[uuid.UUID]*Plugin)}
	if opts.Sanitize {
		l.policy = NewPolicy()
	}
	return l, nil
}

// NewPolicy returns the sanitizing policy for unit markup: user content
// elements plus the marker, class and style attributes widgets rely on.
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataAttributes()
	p.AllowAttrs("class", "style").Globally()
	p.AllowElements("section", "article", "aside", "header", "footer", "nav", "main")
	return p
}

// Load loads d and its nested units, mounting d's markup under mount.
// It fails when d is malformed, its assets fail or time out, the mount
// went stale, or a plugin hook fails. Problems of nested units and
// individual widgets are absorbed into the returned plugin's Errors.
func (l *Loader) Load(ctx context.Context, mount *dom.Element, d *Descriptor) (*Plugin, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return l.load(ctx, mount, nil, d)
}

// Plugin returns the live unit with handle h.
func (l *Loader) Plugin(h uuid.UUID) *Plugin {
	l.pmu.Lock()
	defer l.pmu.Unlock()
	return l.plugins[h]
}

// Plugins returns every live unit ordered by name.
func (l *Loader) Plugins() []*Plugin {
	l.pmu.Lock()
	out := make([]*Plugin, 0, len(l.plugins))
	for _, p := range l.plugins {
		out = append(out, p)
	}
	l.pmu.Unlock()
	slices.SortFunc(out, func(a, b *Plugin) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (l *Loader) remember(p *Plugin) {
	l.pmu.Lock()
	l.plugins[p.Handle] = p
	l.pmu.Unlock()
}

func (l *Loader) forget(p *Plugin) {
	l.pmu.Lock()
	delete(l.plugins, p.Handle)
	l.pmu.Unlock()
}

// load runs the whole sequence for d. host is the widget nested markup
// hangs under, nil for top-level units.
func (l *Loader) load(ctx context.Context, mount *dom.Element, host *widget.Node, d *Descriptor) (*Plugin, error) {
	start := time.Now()
	p, err := l.loadUnit(ctx, mount, host, d)
	widgets := 0
	if p != nil {
		widgets = p.result.Live()
	}
	l.opts.Hooks.Loader.OnUnitLoaded(ctx, d.Name, widgets, time.Since(start), err)
	if err != nil {
		l.opts.Logger.Warn("unit failed", "unit", d.Name, "err", err)
		return nil, err
	}
	l.opts.Logger.Debug("unit loaded", "unit", d.Name, "handle", p.Handle, "widgets", widgets)
	l.loadNested(ctx, p, d)
	return p, nil
}

func (l *Loader) loadUnit(ctx context.Context, mount *dom.Element, host *widget.Node, d *Descriptor) (*Plugin, error) {
	hooks := Hooks{}
	if d.Plugin != "" {
		h, err := l.opts.Plugins.Lookup(d.Plugin)
		if err != nil {
			return nil, err
		}
		hooks = h
	}

	if err := l.waitAssets(ctx, d); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stale(mount) {
		return nil, errors.New(errors.ErrCodeStaleTarget, "unit %q: mount element is gone", d.Name)
	}
	if host != nil && host.State() == widget.StateDestructed {
		return nil, errors.New(errors.ErrCodeStaleTarget, "unit %q: host widget is destructed", d.Name)
	}

	markup := d.HTML
	if l.policy != nil {
		markup = l.policy.Sanitize(markup)
	}
	frag, err := dom.ParseFragmentString(markup)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "unit %q", d.Name)
	}

	start := time.Now()
	l.opts.Hooks.Pipeline.OnHydrateStart(ctx, len(d.Info))
	var res *hydrate.Result
	if host != nil {
		res, err = hydrate.Under(ctx, host, frag, d.Info)
	} else {
		res, err = hydrate.Hydrate(ctx, l.opts.Tree, frag, d.Info)
	}
	if res != nil {
		l.opts.Hooks.Pipeline.OnHydrateComplete(ctx, res.Live(), len(res.Errors), time.Since(start), err)
	}

	p := &Plugin{
		Handle: uuid.New(),
		Name:   d.Name,
		loader: l,
		hooks:  hooks,
		mount:  mount,
		result: res,
	}
	if res != nil {
		p.roots = res.Roots
		p.errs = slices.Clone(res.Errors)
	}
	if err != nil {
		p.destroy()
		return nil, err
	}
	moveChildren(frag, mount.Node())

	for _, step := range []struct {
		name string
		fn   func(context.Context, *Plugin) error
	}{
		{"BeforeRender", hooks.BeforeRender},
		{"BeforeRun", hooks.BeforeRun},
		{"Run", hooks.Run},
	} {
		if step.fn == nil {
			continue
		}
		if err := step.fn(ctx, p); err != nil {
			p.destroy()
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "plugin %q: %s", d.Name, step.name)
		}
	}

	for _, code := range d.Code {
		if err := l.runCode(ctx, p, code); err != nil {
			l.opts.Logger.Warn("snippet code", "unit", d.Name, "code", code, "err", err)
			p.errs = append(p.errs, err)
		}
	}
	l.remember(p)
	return p, nil
}

func (l *Loader) runCode(ctx context.Context, p *Plugin, code string) error {
	ref, err := handler.ParseRef(code)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnknownCommand, err, "snippet code %q", code)
	}
	b, err := l.opts.Tree.Handlers().Resolve(ref)
	if err != nil {
		return err
	}
	if err := b.Invoke(ctx, "run", p); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "snippet code %q", code)
	}
	return nil
}

func (l *Loader) waitAssets(ctx context.Context, d *Descriptor) error {
	if len(d.Assets) == 0 {
		return nil
	}
	wctx := ctx
	if l.opts.AssetTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, l.opts.AssetTimeout)
		defer cancel()
	}
	start := time.Now()
	l.opts.Hooks.Loader.OnAssetsStart(ctx, d.Name, len(d.Assets))
	err := asset.Join(wctx, l.opts.Assets, d.Assets)
	if err == context.DeadlineExceeded && ctx.Err() == nil {
		err = errors.Wrap(errors.ErrCodeTimeout, err, "unit %q: assets not ready after %s", d.Name, l.opts.AssetTimeout)
	}
	l.opts.Hooks.Loader.OnAssetsComplete(ctx, d.Name, time.Since(start), err)
	return err
}

// loadNested loads the nested units of d concurrently. A unit that fails
// is recorded on p; its siblings are unaffected.
func (l *Loader) loadNested(ctx context.Context, p *Plugin, d *Descriptor) {
	if len(d.Nested) == 0 {
		return
	}
	var g errgroup.Group
	for i := range d.Nested {
		nd := &d.Nested[i]
		mount, host := p.mount, (*widget.Node)(nil)
		if nd.Mount != "" {
			l.mu.Lock()
			n := p.Node(nd.Mount)
			l.mu.Unlock()
			if n == nil || n.Element() == nil {
				p.addError(errors.New(errors.ErrCodeNotFound, "unit %q: no mount widget %q in %q", nd.Name, nd.Mount, d.Name))
				continue
			}
			mount, host = n.Element(), n
		}
		g.Go(func() error {
			child, err := l.load(ctx, mount, host, nd)
			if err != nil {
				p.addError(err)
				return nil
			}
			p.addNested(child)
			return nil
		})
	}
	_ = g.Wait()
}

// stale reports whether mount can no longer receive markup.
func (l *Loader) stale(mount *dom.Element) bool {
	if mount == nil || mount.Node() == nil {
		return true
	}
	return l.opts.Document != nil && !mount.Within(l.opts.Document)
}

func moveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		to.AppendChild(c)
		c = next
	}
}

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/matzehuels/risekit/pkg/asset"
	"github.com/matzehuels/risekit/pkg/cache"
	"github.com/matzehuels/risekit/pkg/dom"
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
	"github.com/matzehuels/risekit/pkg/hydrate"
	"github.com/matzehuels/risekit/pkg/loader"
	"github.com/matzehuels/risekit/pkg/observability"
	"github.com/matzehuels/risekit/pkg/page"
	"github.com/matzehuels/risekit/pkg/widget"
)

const cacheKeyPayload = "payload"

// Runner encapsulates pipeline execution with caching. It holds no
// results, so one Runner serves concurrent runs with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Hooks  observability.Hooks
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the default key layout and a nil logger discards output.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Hooks:  observability.Noop(),
	}
}

// Execute packs the page named by opts and hydrates the result.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)
	result := &Result{}

	// Stage 1: Pack
	packStart := time.Now()
	packed, hit, err := r.PackWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	result.Descriptor = packed.Descriptor
	result.Stats.PackTime = time.Since(packStart)
	result.Stats.Units = packed.Units
	result.Stats.Packed = packed.Widgets
	result.Stats.Bytes = packed.Bytes
	result.CacheInfo.PackHit = hit

	r.Logger.Info("packed page",
		"units", packed.Units,
		"widgets", packed.Widgets,
		"bytes", packed.Bytes,
		"cached", hit,
		"duration", result.Stats.PackTime)

	// Stage 2: Hydrate
	if opts.Width == 0 {
		opts.Width = packed.Viewport.W
	}
	if opts.Height == 0 {
		opts.Height = packed.Viewport.H
	}
	hydrateStart := time.Now()
	h, err := r.Hydrate(ctx, packed.Descriptor, opts)
	if err != nil {
		return nil, fmt.Errorf("hydrate: %w", err)
	}
	result.Hydrated = h
	result.Stats.HydrateTime = time.Since(hydrateStart)
	result.Stats.Widgets = h.Live()
	result.Stats.Problems = len(h.Problems())

	r.Logger.Info("hydrated page",
		"widgets", result.Stats.Widgets,
		"problems", result.Stats.Problems,
		"duration", result.Stats.HydrateTime)

	return result, nil
}

// =============================================================================
// Pack
// =============================================================================

// Packed is the outcome of the pack stage.
type Packed struct {
	Descriptor *loader.Descriptor
	Viewport   geometry.Size

	Units   int
	Widgets int
	Bytes   int
}

// Pack is PackWithCacheInfo without the cache hit flag.
func (r *Runner) Pack(ctx context.Context, opts Options) (*Packed, error) {
	p, _, err := r.PackWithCacheInfo(ctx, opts)
	return p, err
}

// PackWithCacheInfo parses the page, builds its server trees and packs them
// into a descriptor. Descriptors are cached by page content and viewport;
// Refresh skips the lookup but still stores the result.
func (r *Runner) PackWithCacheInfo(ctx context.Context, opts Options) (*Packed, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	pg, err := page.Parse(opts.Source, opts.Format)
	if err != nil {
		return nil, false, err
	}
	if opts.Width > 0 {
		pg.Viewport.Width = opts.Width
	}
	if opts.Height > 0 {
		pg.Viewport.Height = opts.Height
	}
	viewport := pg.Viewport.Size()

	sourceHash := cache.Hash(append([]byte(string(opts.Format)+"\n"), opts.Source...))
	cacheKey := r.Keyer.PayloadKey(sourceHash, cache.PayloadKeyOpts{Width: viewport.W, Height: viewport.H})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if d, err := loader.ReadDescriptor(bytes.NewReader(data)); err == nil {
				r.Hooks.Cache.OnCacheHit(ctx, cacheKeyPayload)
				return newPacked(d, viewport), true, nil
			}
			// A stale or corrupt entry is rebuilt below.
		}
		r.Hooks.Cache.OnCacheMiss(ctx, cacheKeyPayload)
	}

	start := time.Now()
	r.Hooks.Pipeline.OnPackStart(ctx, opts.Page)
	d, stats, err := BuildDescriptor(pg, widget.Options{
		Viewport: viewport,
		Registry: opts.Registry,
		Handlers: opts.Handlers,
		Logger:   opts.Logger,
	})
	r.Hooks.Pipeline.OnPackComplete(ctx, opts.Page, stats.Widgets, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, buf.Bytes(), cache.TTLPayload); err != nil {
			r.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
		} else {
			r.Hooks.Cache.OnCacheSet(ctx, cacheKeyPayload, buf.Len())
		}
	}
	return newPacked(d, viewport), false, nil
}

func newPacked(d *loader.Descriptor, viewport geometry.Size) *Packed {
	p := &Packed{Descriptor: d, Viewport: viewport}
	var walk func(d *loader.Descriptor)
	walk = func(d *loader.Descriptor) {
		p.Units++
		p.Widgets += len(d.Info)
		p.Bytes += len(d.HTML)
		for i := range d.Nested {
			walk(&d.Nested[i])
		}
	}
	walk(d)
	return p
}

// =============================================================================
// Hydrate
// =============================================================================

// Hydrated is a page brought to life on a client tree.
type Hydrated struct {
	Tree     *widget.Tree
	Document *html.Node
	Mount    *dom.Element
	Loader   *loader.Loader
	Plugin   *loader.Plugin
	Modules  *asset.Modules
}

// Hydrate loads d into a fresh client tree mounted in an empty document.
// Modules listed in opts are provided up front; scripts and stylesheets are
// fetched when FetchAssets is set and rejected otherwise.
func (r *Runner) Hydrate(ctx context.Context, d *loader.Descriptor, opts Options) (*Hydrated, error) {
	if d == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no descriptor")
	}
	opts.SetHydrateDefaults()
	r.applyLogger(&opts)

	tree := widget.NewTree(widget.Options{
		Viewport: geometry.Size{W: opts.Width, H: opts.Height},
		Registry: opts.Registry,
		Handlers: opts.Handlers,
		Logger:   opts.Logger,
	})
	doc := dom.NewFragment()
	mount := dom.New("main")
	doc.AppendChild(mount.Node())

	mods := asset.NewModules(opts.Modules...)
	mux := asset.Mux{asset.KindModule: mods}
	if opts.FetchAssets {
		f := asset.NewFetcher(asset.FetcherOptions{Cache: r.Cache, Keyer: r.Keyer, Logger: opts.Logger})
		mux[asset.KindScript] = f
		mux[asset.KindStyle] = f
	}

	l, err := loader.New(loader.Options{
		Tree:         tree,
		Assets:       mux,
		Plugins:      opts.Plugins,
		AssetTimeout: opts.AssetTimeout,
		Document:     doc,
		Sanitize:     opts.Sanitize,
		Hooks:        r.Hooks,
		Logger:       opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	p, err := l.Load(ctx, mount, d)
	if err != nil {
		return nil, err
	}
	return &Hydrated{
		Tree:     tree,
		Document: doc,
		Mount:    mount,
		Loader:   l,
		Plugin:   p,
		Modules:  mods,
	}, nil
}

// Units returns every loaded unit, the top-level one first, then nested
// units depth first in completion order.
func (h *Hydrated) Units() []*loader.Plugin {
	var out []*loader.Plugin
	var walk func(p *loader.Plugin)
	walk = func(p *loader.Plugin) {
		out = append(out, p)
		for _, c := range p.Nested() {
			walk(c)
		}
	}
	walk(h.Plugin)
	return out
}

// Live returns the number of risen widgets across all units.
func (h *Hydrated) Live() int {
	n := 0
	for _, p := range h.Units() {
		if res := p.Result(); res != nil {
			n += res.Live()
		}
	}
	return n
}

// Problems returns every problem absorbed by any unit.
func (h *Hydrated) Problems() []error {
	var out []error
	for _, p := range h.Units() {
		out = append(out, p.Errors()...)
	}
	return out
}

// Markup renders the document as it stands after hydration.
func (h *Hydrated) Markup() (string, error) {
	return dom.RenderString(h.Document)
}

// Verify repacks every loaded unit and compares it with the descriptor it
// came from. Units that did not load are ignored.
func (h *Hydrated) Verify(d *loader.Descriptor) error {
	return verifyUnit(h.Plugin, d)
}

func verifyUnit(p *loader.Plugin, d *loader.Descriptor) error {
	if res := p.Result(); res != nil {
		if err := hydrate.Verify(d.Info, res); err != nil {
			return errors.Wrap(errors.ErrCodeStructuralMismatch, err, "unit %q", d.Name)
		}
	}
	byName := make(map[string]*loader.Descriptor, len(d.Nested))
	for i := range d.Nested {
		byName[d.Nested[i].Name] = &d.Nested[i]
	}
	for _, c := range p.Nested() {
		nd, ok := byName[c.Name]
		if !ok {
			continue
		}
		if err := verifyUnit(c, nd); err != nil {
			return err
		}
	}
	return nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

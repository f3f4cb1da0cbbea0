// Package observability provides hooks for metrics, tracing and logging.
//
// Libraries never import a metrics backend. Instead each component accepts
// a [Hooks] value and reports events through it; main wires a concrete
// implementation. Hooks are passed explicitly, one value per application,
// so tests and concurrent applications never share instrumentation state.
//
// # Usage
//
//	hooks := observability.Hooks{Pipeline: myMetrics{}}
//	hooks.SetDefaults()
//	runner := pipeline.NewRunner(c, keyer, logger)
//	runner.Hooks = hooks
//
// [LogHooks] reports every event as a debug log line and backs the CLI's
// --verbose flag.
package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from packing and hydration.
type PipelineHooks interface {
	// Pack events
	OnPackStart(ctx context.Context, page string)
	OnPackComplete(ctx context.Context, page string, widgets int, duration time.Duration, err error)

	// Hydrate events
	OnHydrateStart(ctx context.Context, entries int)
	OnHydrateComplete(ctx context.Context, live, problems int, duration time.Duration, err error)
}

// =============================================================================
// Loader Hooks
// =============================================================================

// LoaderHooks receives events from the snippet and plugin loader.
type LoaderHooks interface {
	// OnAssetsStart records the start of an asset barrier.
	OnAssetsStart(ctx context.Context, unit string, assets int)

	// OnAssetsComplete records the barrier opening or failing.
	OnAssetsComplete(ctx context.Context, unit string, duration time.Duration, err error)

	// OnUnitLoaded records a finished unit, nested units excluded.
	OnUnitLoaded(ctx context.Context, unit string, widgets int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache lookups.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Hooks
// =============================================================================

// Hooks bundles the hook sets of one application.
type Hooks struct {
	Pipeline PipelineHooks
	Loader   LoaderHooks
	Cache    CacheHooks
}

// SetDefaults replaces unset hook sets with no-ops.
func (h *Hooks) SetDefaults() {
	if h.Pipeline == nil {
		h.Pipeline = NoopPipelineHooks{}
	}
	if h.Loader == nil {
		h.Loader = NoopLoaderHooks{}
	}
	if h.Cache == nil {
		h.Cache = NoopCacheHooks{}
	}
}

// Noop returns hooks that discard every event.
func Noop() Hooks {
	var h Hooks
	h.SetDefaults()
	return h
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnPackStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnPackComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnHydrateStart(context.Context, int)                               {}
func (NoopPipelineHooks) OnHydrateComplete(context.Context, int, int, time.Duration, error) {}

// NoopLoaderHooks is a no-op implementation of LoaderHooks.
type NoopLoaderHooks struct{}

func (NoopLoaderHooks) OnAssetsStart(context.Context, string, int)                      {}
func (NoopLoaderHooks) OnAssetsComplete(context.Context, string, time.Duration, error)  {}
func (NoopLoaderHooks) OnUnitLoaded(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Log Implementation
// =============================================================================

// LogHooks writes every event to Logger at debug level.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns Hooks whose three sets all log to logger.
func NewLogHooks(logger *log.Logger) Hooks {
	l := LogHooks{Logger: logger}
	return Hooks{Pipeline: l, Loader: l, Cache: l}
}

func (l LogHooks) OnPackStart(_ context.Context, page string) {
	l.Logger.Debug("pack start", "page", page)
}

func (l LogHooks) OnPackComplete(_ context.Context, page string, widgets int, d time.Duration, err error) {
	l.Logger.Debug("pack done", "page", page, "widgets", widgets, "took", d, "err", err)
}

func (l LogHooks) OnHydrateStart(_ context.Context, entries int) {
	l.Logger.Debug("hydrate start", "entries", entries)
}

func (l LogHooks) OnHydrateComplete(_ context.Context, live, problems int, d time.Duration, err error) {
	l.Logger.Debug("hydrate done", "live", live, "problems", problems, "took", d, "err", err)
}

func (l LogHooks) OnAssetsStart(_ context.Context, unit string, assets int) {
	l.Logger.Debug("assets wait", "unit", unit, "assets", assets)
}

func (l LogHooks) OnAssetsComplete(_ context.Context, unit string, d time.Duration, err error) {
	l.Logger.Debug("assets ready", "unit", unit, "took", d, "err", err)
}

func (l LogHooks) OnUnitLoaded(_ context.Context, unit string, widgets int, d time.Duration, err error) {
	l.Logger.Debug("unit loaded", "unit", unit, "widgets", widgets, "took", d, "err", err)
}

func (l LogHooks) OnCacheHit(_ context.Context, keyType string) {
	l.Logger.Debug("cache hit", "type", keyType)
}

func (l LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	l.Logger.Debug("cache miss", "type", keyType)
}

func (l LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	l.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ PipelineHooks = LogHooks{}
	_ LoaderHooks   = LogHooks{}
	_ CacheHooks    = LogHooks{}
)

// Package pipeline runs risekit end to end: page file → server widget tree
// → packed descriptor, and descriptor → hydrated client tree.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Pack: parse a page file, build one server tree for the page roots
//     and one per snippet unit, and pack each into a [loader.Descriptor]
//  2. Hydrate: load the descriptor into a fresh client tree through the
//     loader (asset barrier, hydration, plugin hooks, nested units)
//
// Packed descriptors are cached by page content and viewport.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Page: "home.toml"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Stats.Widgets, "widgets live")
package pipeline

import (
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/handler"
	"github.com/matzehuels/risekit/pkg/loader"
	"github.com/matzehuels/risekit/pkg/page"
	"github.com/matzehuels/risekit/pkg/widget"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run.
type Options struct {
	// Pack options
	Page   string      `json:"page,omitempty"`   // page file path
	Source []byte      `json:"-"`                // page content, read from Page when empty
	Format page.Format `json:"format,omitempty"` // inferred from Page when empty
	Width  float64     `json:"width,omitempty"`  // overrides the page viewport
	Height float64     `json:"height,omitempty"`

	// Refresh bypasses the payload cache.
	Refresh bool `json:"refresh,omitempty"`

	// Hydrate options
	Modules      []string      `json:"modules,omitempty"` // modules available on the client
	FetchAssets  bool          `json:"fetch_assets,omitempty"`
	AssetTimeout time.Duration `json:"asset_timeout,omitempty"`
	Sanitize     bool          `json:"sanitize,omitempty"`

	// Runtime options (not serialized)
	Registry *widget.Registry `json:"-"`
	Handlers *handler.Table   `json:"-"`
	Plugins  *loader.Registry `json:"-"`
	Logger   *log.Logger      `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the page source and fills defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Source) == 0 {
		if o.Page == "" {
			return errors.New(errors.ErrCodeInvalidInput, "page or source is required")
		}
		data, err := os.ReadFile(o.Page)
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", o.Page)
		}
		if err != nil {
			return err
		}
		o.Source = data
	}
	if o.Format == "" {
		o.Format = page.FormatOf(o.Page)
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "viewport %gx%g is negative", o.Width, o.Height)
	}
	o.SetHydrateDefaults()
	o.validated = true
	return nil
}

// SetHydrateDefaults fills the registries the hydrate stage needs. The
// logger is left to the runner.
func (o *Options) SetHydrateDefaults() {
	if o.Registry == nil {
		o.Registry = widget.NewCoreRegistry()
	}
	if o.Handlers == nil {
		o.Handlers = handler.NewTable()
	}
	if o.Plugins == nil {
		o.Plugins = loader.NewRegistry()
	}
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of a full run.
type Result struct {
	// Descriptor is the packed page.
	Descriptor *loader.Descriptor

	// Hydrated is the live client side.
	Hydrated *Hydrated

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains run statistics.
type Stats struct {
	Units       int // descriptors, nested ones included
	Packed      int // widgets packed
	Bytes       int // markup bytes packed
	Widgets     int // widgets live after hydration
	Problems    int // absorbed hydration and loading problems
	PackTime    time.Duration
	HydrateTime time.Duration
}

// CacheInfo tracks cache hits per stage.
type CacheInfo struct {
	PackHit bool // descriptor came from cache
}

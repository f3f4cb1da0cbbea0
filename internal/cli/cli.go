// Package cli implements the risekit command-line interface.
//
// # Commands
//
//   - pack: build a page file into a packed descriptor
//   - hydrate: load a descriptor (or page) into a live tree and report it
//   - inspect: browse a hydrated widget tree interactively
//   - dot: export a widget tree as Graphviz DOT or SVG
//   - cache: manage the payload and asset cache
//
// All commands support --verbose (-v) for debug-level logging, which also
// turns on hook logging for pack, hydrate, loader and cache events.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/risekit/pkg/buildinfo"
	"github.com/matzehuels/risekit/pkg/cache"
	"github.com/matzehuels/risekit/pkg/observability"
	"github.com/matzehuels/risekit/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "risekit"

	// defaultAssetTimeout bounds asset barriers for CLI runs.
	defaultAssetTimeout = 10 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Out    io.Writer
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Out: os.Stdout}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Risekit packs widget trees to markup and hydrates them back",
		Long:         `Risekit builds retained-mode widget trees from page files, packs them into static markup plus an info array, and hydrates that markup back into a live tree without re-rendering it.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.packCommand())
	root.AddCommand(c.hydrateCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Debug logging turns on
// hook logging.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cache, nil, c.Logger)
	if c.Logger.GetLevel() <= log.DebugLevel {
		r.Hooks = observability.NewLogHooks(c.Logger)
	}
	return r, nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/risekit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

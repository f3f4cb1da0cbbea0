package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/risekit/pkg/loader"
	"github.com/matzehuels/risekit/pkg/pipeline"
)

// hydrateFlags are the flags shared by every command that brings a page to
// life.
type hydrateFlags struct {
	modules  []string
	fetch    bool
	timeout  time.Duration
	sanitize bool
	width    float64
	height   float64
	noCache  bool
}

func (f *hydrateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.modules, "module", "m", nil, "modules available on the client (repeatable)")
	cmd.Flags().BoolVar(&f.fetch, "fetch", false, "fetch script and style assets over HTTP")
	cmd.Flags().DurationVar(&f.timeout, "timeout", defaultAssetTimeout, "asset barrier timeout (negative waits forever)")
	cmd.Flags().BoolVar(&f.sanitize, "sanitize", false, "sanitize unit markup before hydrating")
	cmd.Flags().Float64Var(&f.width, "width", 0, "viewport width")
	cmd.Flags().Float64Var(&f.height, "height", 0, "viewport height")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the payload and asset cache")
}

func (f *hydrateFlags) options() pipeline.Options {
	timeout := f.timeout
	if timeout < 0 {
		timeout = loader.NoTimeout
	}
	return pipeline.Options{
		Modules:      f.modules,
		FetchAssets:  f.fetch,
		AssetTimeout: timeout,
		Sanitize:     f.sanitize,
		Width:        f.width,
		Height:       f.height,
	}
}

// hydration is a hydrated input with the descriptor it came from.
type hydration struct {
	*pipeline.Hydrated
	Descriptor *loader.Descriptor
	Cached     bool
}

// hydrateInput hydrates a descriptor (.json) or packs and hydrates a page
// file.
func (c *CLI) hydrateInput(ctx context.Context, input string, f *hydrateFlags) (*hydration, error) {
	runner, err := c.newRunner(f.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	opts := f.options()
	if strings.EqualFold(filepath.Ext(input), ".json") {
		d, err := loader.LoadDescriptor(input)
		if err != nil {
			return nil, err
		}
		h, err := runner.Hydrate(ctx, d, opts)
		if err != nil {
			return nil, err
		}
		return &hydration{Hydrated: h, Descriptor: d}, nil
	}

	opts.Page = input
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &hydration{Hydrated: res.Hydrated, Descriptor: res.Descriptor, Cached: res.CacheInfo.PackHit}, nil
}

// hydrateCommand creates the hydrate command.
func (c *CLI) hydrateCommand() *cobra.Command {
	var (
		flags  hydrateFlags
		output string
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "hydrate <descriptor.json|page>",
		Short: "Hydrate a descriptor into a live widget tree",
		Long: `Hydrate loads a packed descriptor (or packs a page file first) into a
fresh client tree: asset barriers, hydration, plugin hooks and nested
units, in that order. Problems absorbed along the way are listed.`,
		Example: `  risekit hydrate home.json -m charts
  risekit hydrate home.toml --fetch --timeout 5s -o live.html --verify`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spin := newSpinnerWithContext(cmd.Context(), os.Stderr, "Hydrating "+args[0])
			spin.Start()
			prog := newProgress(c.Logger)
			h, err := c.hydrateInput(cmd.Context(), args[0], &flags)
			if err != nil {
				spin.StopWithError("Hydration failed")
				return err
			}
			spin.Stop()
			units := h.Units()
			prog.done(fmt.Sprintf("Hydrated %d units", len(units)))

			printSuccess("Hydrated %s", args[0])
			printStats(len(units), h.Live(), h.Cached)
			for _, p := range units {
				printKeyValue(p.Name, fmt.Sprintf("%d widgets", p.Result().Live()))
			}
			printProblems(h.Problems(), 10)

			if verify {
				if err := h.Verify(h.Descriptor); err != nil {
					return err
				}
				printSuccess("Repack matches the descriptor")
			}

			if output != "" {
				markup, err := h.Markup()
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, []byte(markup), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				printFile(output)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the hydrated markup to a file")
	cmd.Flags().BoolVar(&verify, "verify", false, "repack every unit and compare with the descriptor")

	return cmd
}

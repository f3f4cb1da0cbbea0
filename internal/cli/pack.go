package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/risekit/pkg/pipeline"
)

// packCommand creates the pack command.
func (c *CLI) packCommand() *cobra.Command {
	var (
		output  string
		width   float64
		height  float64
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "pack <page>",
		Short: "Pack a page file into a descriptor",
		Long: `Pack builds the widget trees of a page file (TOML or YAML) and packs
them into a JSON descriptor: static markup plus the info array of every
unit, nested snippet units included.

Without --output the descriptor is written to stdout.`,
		Example: `  risekit pack home.toml -o home.json
  risekit pack home.yaml --width 1920 --height 1080`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			packed, hit, err := runner.PackWithCacheInfo(cmd.Context(), pipeline.Options{
				Page:    args[0],
				Width:   width,
				Height:  height,
				Refresh: refresh,
			})
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Packed %d units", packed.Units))

			var buf bytes.Buffer
			if _, err := packed.Descriptor.WriteTo(&buf); err != nil {
				return err
			}
			if output == "" {
				_, err := buf.WriteTo(c.Out)
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess("Packed %s", args[0])
			printStats(packed.Units, packed.Widgets, hit)
			printFile(output)
			printNextStep("Hydrate it", "risekit hydrate "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "descriptor output file (default stdout)")
	cmd.Flags().Float64Var(&width, "width", 0, "viewport width (default from page)")
	cmd.Flags().Float64Var(&height, "height", 0, "viewport height (default from page)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the payload cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "rebuild even when cached")

	return cmd
}

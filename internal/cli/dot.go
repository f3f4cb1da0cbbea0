package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/risekit/pkg/inspect"
)

// dotCommand creates the dot command.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		flags    hydrateFlags
		output   string
		detailed bool
		links    bool
	)

	cmd := &cobra.Command{
		Use:   "dot <descriptor.json|page>",
		Short: "Export a hydrated widget tree as Graphviz DOT or SVG",
		Long: `Dot hydrates its input and writes the live widget tree as a Graphviz
graph. An --output ending in .svg is rendered with Graphviz; anything else
receives DOT source. Without --output DOT goes to stdout.`,
		Example: `  risekit dot home.json -m charts | dot -Tpng > tree.png
  risekit dot home.toml --detailed --links -o tree.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.hydrateInput(cmd.Context(), args[0], &flags)
			if err != nil {
				return err
			}
			dot := inspect.ToDOT(h.Tree.Roots(), inspect.Options{Detailed: detailed, Links: links})
			if output == "" {
				_, err := fmt.Fprint(c.Out, dot)
				return err
			}

			data := []byte(dot)
			if strings.EqualFold(filepath.Ext(output), ".svg") {
				if data, err = inspect.RenderSVG(cmd.Context(), dot); err != nil {
					return err
				}
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Exported %d widgets", h.Live())
			printFile(output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, .svg renders with Graphviz (default DOT to stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include type, bounds and strategy in labels")
	cmd.Flags().BoolVar(&links, "links", false, "draw widget links as dashed edges")

	return cmd
}

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/regionsync/pkg/graph"
	"github.com/matzehuels/regionsync/pkg/pipeline"
)

// colorsFlags holds the flags of the colors command.
type colorsFlags struct {
	layout       string
	palette      []string
	colors       []string
	keepExisting bool
	configPath   string
	output       string
	cache        cacheFlags
}

// colorsCommand creates the colors command.
func (c *CLI) colorsCommand() *cobra.Command {
	var f colorsFlags

	cmd := &cobra.Command{
		Use:   "colors [project.json]",
		Short: "Assign link colors of a layout",
		Long: `Assign a color to every link tree of a layout. Trees that meet at a junction
get different colors where the palette allows it; a remaining collision is
reported.`,
		Example: `  # Recolor the root layout from the default palette
  regionsync colors project.json

  # Pin one source and keep the rest
  regionsync colors project.json --color plc1=#d62728 --keep-existing`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runColors(cmd.Context(), args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.layout, "layout", "l", graph.RootLayout, "layout to color (root or an instance ID)")
	cmd.Flags().StringSliceVar(&f.palette, "palette", nil, "palette colors (default: from config)")
	cmd.Flags().StringArrayVar(&f.colors, "color", nil, "explicit link color as source=color (repeatable)")
	cmd.Flags().BoolVar(&f.keepExisting, "keep-existing", false, "keep colors already assigned")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "layout options file (TOML)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: rewrite the input)")
	f.cache.register(cmd)

	return cmd
}

func (c *CLI) runColors(ctx context.Context, input string, f colorsFlags) error {
	logger := loggerFromContext(ctx)

	doc, err := graph.ReadDocumentFile(input)
	if err != nil {
		return err
	}
	palette := f.palette
	if len(palette) == 0 {
		layoutOpts, err := loadLayoutOptions(f.configPath)
		if err != nil {
			return err
		}
		palette = layoutOpts.Palette
	}
	explicit, err := parseColors(f.colors)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, f.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := runner.Colors(ctx, doc, f.layout, pipeline.ColorOptions{
		Palette:      palette,
		Explicit:     explicit,
		KeepExisting: f.keepExisting,
		Refresh:      f.cache.refresh,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	if err := writeResult(res.Document, input, f.output); err != nil {
		return err
	}
	printSuccess("Colored layout %s", StyleHighlight.Render(res.Target))
	printStats(res.Stats.Nodes, res.Stats.Links, res.Stats.Duration, res.CacheHit)
	printReport(res.Report)
	return nil
}

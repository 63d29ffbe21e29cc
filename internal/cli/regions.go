package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/regionsync/pkg/graph"
	"github.com/matzehuels/regionsync/pkg/pipeline"
	"github.com/matzehuels/regionsync/pkg/render/nodelink"
)

// regionsFlags holds the flags of the regions command.
type regionsFlags struct {
	instance string
	format   string
	output   string
	detailed bool
	excluded bool
}

// regionsCommand creates the regions command.
func (c *CLI) regionsCommand() *cobra.Command {
	var f regionsFlags

	cmd := &cobra.Command{
		Use:   "regions [project.json]",
		Short: "Show the region ordering of an instance",
		Long: `Order the regions of an instance by the links that cross between them, the
order the placement engine merges them in. The ordering is printed as JSON or
drawn as a Graphviz graph (dot or svg).`,
		Example: `  # Print the column of every region
  regionsync regions project.json --instance I1

  # Draw the region graph with the edges that broke a cycle
  regionsync regions project.json --instance I1 --format svg --excluded -o regions.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRegions(cmd.Context(), args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.instance, "instance", "i", "", "instance whose regions are ordered (required)")
	cmd.Flags().StringVarP(&f.format, "format", "f", pipeline.FormatJSON, "output format: json, dot, svg")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "label regions with columns and edges with link IDs")
	cmd.Flags().BoolVar(&f.excluded, "excluded", false, "draw the edges dropped to break cycles")
	_ = cmd.MarkFlagRequired("instance")

	return cmd
}

func (c *CLI) runRegions(ctx context.Context, input string, f regionsFlags) error {
	if err := pipeline.ValidateFormat(f.format); err != nil {
		return err
	}
	doc, err := graph.ReadDocumentFile(input)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if f.output != "" {
		out, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", f.output, err)
		}
		defer out.Close()
		w = out
	}

	runner := pipeline.NewRunner(nil, nil, loggerFromContext(ctx))
	opts := nodelink.Options{Detailed: f.detailed, Excluded: f.excluded}
	if err := runner.WriteRegions(ctx, w, doc, f.instance, f.format, opts); err != nil {
		return err
	}
	if f.output != "" {
		printSuccess("Wrote region %s for %s", f.format, StyleHighlight.Render(f.instance))
		printFile(f.output)
	} else if f.format == pipeline.FormatJSON {
		fmt.Fprintln(w)
	}
	return nil
}

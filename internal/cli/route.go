package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/regionsync/pkg/graph"
	"github.com/matzehuels/regionsync/pkg/pipeline"
	"github.com/matzehuels/regionsync/pkg/progress"
)

// routeFlags holds the flags of the route command.
type routeFlags struct {
	layout     string
	exempt     []string
	configPath string
	output     string
	cache      cacheFlags
}

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var f routeFlags

	cmd := &cobra.Command{
		Use:   "route [project.json]",
		Short: "Route the unrouted links of a layout",
		Long: `Route every link of a layout that no link tree carries yet, then run the
configured optimization passes. Links that cannot be routed are reported and
left unrouted.`,
		Example: `  # Route the root layout
  regionsync route project.json

  # Route an instance layout into a new file
  regionsync route project.json --layout I1 -o routed.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoute(cmd.Context(), args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.layout, "layout", "l", graph.RootLayout, "layout to route (root or an instance ID)")
	cmd.Flags().StringSliceVar(&f.exempt, "exempt", nil, "links left exactly as they are")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "layout options file (TOML)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: rewrite the input)")
	f.cache.register(cmd)

	return cmd
}

func (c *CLI) runRoute(ctx context.Context, input string, f routeFlags) error {
	logger := loggerFromContext(ctx)

	doc, err := graph.ReadDocumentFile(input)
	if err != nil {
		return err
	}
	layoutOpts, err := loadLayoutOptions(f.configPath)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, f.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	sw := newStopwatch(logger)
	var res *pipeline.Result
	err = withProgress(logger, "Routing "+f.layout, func(m progress.Monitor) error {
		var err error
		res, err = runner.Route(ctx, doc, f.layout, pipeline.RouteOptions{
			Layout:     layoutOpts,
			Exemptions: f.exempt,
			Refresh:    f.cache.refresh,
			Logger:     logger,
			Monitor:    m,
		})
		return err
	})
	if err != nil {
		return err
	}
	sw.done(fmt.Sprintf("Routed %s", f.layout))

	if err := writeResult(res.Document, input, f.output); err != nil {
		return err
	}
	printSuccess("Routed layout %s", StyleHighlight.Render(res.Target))
	printStats(res.Stats.Nodes, res.Stats.Links, res.Stats.Duration, res.CacheHit)
	printReport(res.Report)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/regionsync/pkg/graph"
	"github.com/matzehuels/regionsync/pkg/pipeline"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/syncer"
)

// syncFlags holds the flags of the sync command.
type syncFlags struct {
	instance   string
	direction  string
	strategy   string
	regions    []string
	exempt     []string
	colors     []string
	keepColors bool
	configPath string
	output     string
	cache      cacheFlags
	journal    journalFlags
}

// syncCommand creates the sync command.
func (c *CLI) syncCommand() *cobra.Command {
	var f syncFlags

	cmd := &cobra.Command{
		Use:   "sync [project.json]",
		Short: "Synchronize an instance layout with the root layout",
		Long: `Synchronize the layout of one instance with the root layout.

Down (the default) places the instance regions from the root layout; up writes
instance changes back to the root. The strategy is chosen automatically from
the state of the target layout unless --strategy names one.

Strategies: ` + strings.Join(syncer.StrategyNames(), ", ") + `

The project is rewritten in place unless -o names another file ("-" for stdout).`,
		Example: `  # Place a new instance from the root layout
  regionsync sync project.json --instance I1

  # Rebuild two regions and keep every other one as it is
  regionsync sync project.json --instance I1 --strategy sync-to-existing --regions R1,R2

  # Push instance edits back to the root and record them
  regionsync sync project.json --instance I1 --direction up --journal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSync(cmd.Context(), args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.instance, "instance", "i", "", "instance to synchronize (required)")
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "down", "down (root to instance) or up (instance to root)")
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", syncer.Auto.String(), "synchronization strategy")
	cmd.Flags().StringSliceVar(&f.regions, "regions", nil, "regions rebuilt by sync-to-existing")
	cmd.Flags().StringSliceVar(&f.exempt, "exempt", nil, "links left exactly as they are")
	cmd.Flags().StringArrayVar(&f.colors, "color", nil, "explicit link color as source=color (repeatable)")
	cmd.Flags().BoolVar(&f.keepColors, "keep-colors", false, "keep link colors already in the target")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "layout options file (TOML)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: rewrite the input)")
	f.cache.register(cmd)
	f.journal.register(cmd)
	_ = cmd.MarkFlagRequired("instance")

	return cmd
}

func (c *CLI) runSync(ctx context.Context, input string, f syncFlags) error {
	logger := loggerFromContext(ctx)

	doc, err := graph.ReadDocumentFile(input)
	if err != nil {
		return err
	}
	layoutOpts, err := loadLayoutOptions(f.configPath)
	if err != nil {
		return err
	}
	colors, err := parseColors(f.colors)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, f.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	sink, release, err := newSink(ctx, f.journal)
	if err != nil {
		return err
	}
	defer release()
	runner.Sink = sink

	opts := pipeline.Options{
		Instance:   f.instance,
		Direction:  f.direction,
		Strategy:   f.strategy,
		Regions:    f.regions,
		Exemptions: f.exempt,
		Colors:     colors,
		KeepColors: f.keepColors,
		Layout:     layoutOpts,
		Refresh:    f.cache.refresh,
		Logger:     logger,
	}

	sw := newStopwatch(logger)
	var res *pipeline.Result
	err = withProgress(logger, "Synchronizing "+f.instance, func(m progress.Monitor) error {
		opts.Monitor = m
		var err error
		res, err = runner.Sync(ctx, doc, opts)
		return err
	})
	if err != nil {
		return err
	}
	sw.done(fmt.Sprintf("Synchronized %s (%s)", f.instance, opts.Direction))

	if err := writeResult(res.Document, input, f.output); err != nil {
		return err
	}
	printSuccess("Synchronized layout %s", StyleHighlight.Render(res.Target))
	printStats(res.Stats.Nodes, res.Stats.Links, res.Stats.Duration, res.CacheHit)
	printReport(res.Report)
	if f.journal.enabled {
		printNextStep("Show changes", fmt.Sprintf("%s history %s", appName, res.Target))
	}
	return nil
}

// writeResult writes doc to output, to input when output is empty, or to
// stdout when output is "-".
func writeResult(doc graph.Document, input, output string) error {
	switch output {
	case "-":
		return graph.WriteDocument(doc, os.Stdout)
	case "":
		output = input
	}
	if err := graph.WriteDocumentFile(doc, output); err != nil {
		return err
	}
	printFile(output)
	return nil
}

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/regionsync/internal/api"
	"github.com/matzehuels/regionsync/pkg/cache"
	"github.com/matzehuels/regionsync/pkg/syncer"
)

// serveFlags holds the flags of the serve command.
type serveFlags struct {
	addr    string
	scope   string
	cache   cacheFlags
	journal journalFlags
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout operations over HTTP",
		Long: `Run the HTTP API. Synchronizations are executed one at a time; routing,
coloring and region queries run concurrently. Results are cached in the local
cache directory, or in Redis with --redis-url so several servers share them.
Servers sharing a Redis database keep their entries apart with --cache-scope.`,
		Example: `  regionsync serve --addr :8080
  regionsync serve --redis-url redis://localhost:6379/0 --mongo-uri mongodb://localhost:27017`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&f.scope, "cache-scope", "", "prefix for cache keys of this server")
	f.cache.register(cmd)
	f.journal.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, f serveFlags) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, f.cache)
	if err != nil {
		return err
	}
	defer runner.Close()
	if f.scope != "" {
		runner.Keyer = cache.NewScopedKeyer(runner.Keyer, f.scope+":")
	}

	sink, release, err := newSink(ctx, f.journal)
	if err != nil {
		return err
	}
	defer release()

	worker := syncer.NewWorker(syncer.New(logger, sink))
	defer worker.Close()
	runner.Worker = worker

	return api.New(runner, logger).ListenAndServe(ctx, f.addr)
}

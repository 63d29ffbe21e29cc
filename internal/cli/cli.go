package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/regionsync/pkg/buildinfo"
	"github.com/matzehuels/regionsync/pkg/cache"
	"github.com/matzehuels/regionsync/pkg/config"
	"github.com/matzehuels/regionsync/pkg/pipeline"
	"github.com/matzehuels/regionsync/pkg/txn"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "regionsync"

	// configFile is the name of the optional layout options file in the
	// config directory.
	configFile = "config.toml"
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
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Regionsync keeps network diagram layouts in step",
		Long: `Regionsync synchronizes the layout of a network instance with the layout of
its root network. Instance regions are placed, their links routed on a grid,
and link colors assigned so that junctions stay unambiguous.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.Logger.GetLevel() <= log.DebugLevel {
				registerLogHooks(c.Logger)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.syncCommand())
	root.AddCommand(c.routeCommand())
	root.AddCommand(c.colorsCommand())
	root.AddCommand(c.regionsCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags are the cache options shared by the layout commands.
type cacheFlags struct {
	noCache  bool
	refresh  bool
	redisURL string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable result caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute and overwrite cached results")
	cmd.Flags().StringVar(&f.redisURL, "redis-url", os.Getenv("REGIONSYNC_REDIS_URL"), "share results through a Redis cache")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f cacheFlags) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, f)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

func newCache(ctx context.Context, f cacheFlags) (cache.Cache, error) {
	if f.noCache {
		return cache.NewNullCache(), nil
	}
	if f.redisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: f.redisURL, Prefix: appName + ":"})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// journalFlags select where finished transactions are recorded.
type journalFlags struct {
	enabled  bool
	mongoURI string
}

func (f *journalFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.enabled, "journal", false, "record layout changes in the local journal")
	cmd.Flags().StringVar(&f.mongoURI, "mongo-uri", os.Getenv("REGIONSYNC_MONGO_URI"), "record layout changes in MongoDB")
}

// newSink returns the transaction sink selected by f, and a function that
// releases it. A nil sink keeps transactions in memory only.
func newSink(ctx context.Context, f journalFlags) (txn.Sink, func(), error) {
	var journal txn.Journal
	release := func() {}
	switch {
	case f.mongoURI != "":
		mj, err := txn.NewMongoJournal(ctx, txn.MongoConfig{URI: f.mongoURI, Database: appName})
		if err != nil {
			return nil, nil, err
		}
		journal = mj
		release = func() { _ = mj.Close(context.WithoutCancel(ctx)) }
	case f.enabled:
		dir, err := journalDir()
		if err != nil {
			return nil, nil, fmt.Errorf("get journal dir: %w", err)
		}
		fj, err := txn.NewFileJournal(dir)
		if err != nil {
			return nil, nil, err
		}
		journal = fj
	default:
		return nil, release, nil
	}
	return txn.Journaled{Sink: txn.NewMemorySink(), Journal: journal}, release, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/regionsync/).
func cacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// configDir returns the config directory (~/.config/regionsync/).
func configDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// journalDir returns the journal directory (~/.local/share/regionsync/journal/).
func journalDir() (string, error) {
	dir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "journal"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// loadLayoutOptions reads layout options from path. An empty path falls back
// to config.toml in the config directory, and to the defaults when that file
// does not exist.
func loadLayoutOptions(path string) (config.LayoutOptions, error) {
	if path != "" {
		return config.Load(path)
	}
	dir, err := configDir()
	if err != nil {
		return config.Defaults(), nil
	}
	path = filepath.Join(dir, configFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Defaults(), nil
	}
	return config.Load(path)
}

// parseColors parses "source=#rrggbb" pairs.
func parseColors(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		src, color, ok := strings.Cut(p, "=")
		if !ok || src == "" || color == "" {
			return nil, fmt.Errorf("invalid color %q (want source=color)", p)
		}
		out[src] = color
	}
	return out, nil
}

// Package cli implements the regionsync command-line interface.
//
// This package provides commands for synchronizing instance layouts with
// their root layout, routing and coloring links, inspecting the region
// ordering of an instance, and serving all of it over HTTP. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - sync: Synchronize an instance layout with the root layout
//   - route: Route the unrouted links of one layout
//   - colors: Assign link colors of one layout
//   - regions: Print or draw the region ordering of an instance
//   - history: List the journaled changes of a layout
//   - serve: Run the HTTP API
//   - cache: Manage the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/matzehuels/regionsync/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/regionsync/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch logs completion of an operation with the elapsed duration.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func newStopwatch(l *log.Logger) *stopwatch {
	return &stopwatch{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Synchronized I1 (1.234s)".
func (s *stopwatch) done(msg string) {
	s.logger.Infof("%s (%s)", msg, time.Since(s.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() when
// none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Debug Hooks
// =============================================================================

// logHooks reports layout core events at debug level.
type logHooks struct {
	logger *log.Logger
}

// registerLogHooks routes observability events to logger.
func registerLogHooks(logger *log.Logger) {
	h := logHooks{logger: logger}
	observability.SetSyncHooks(h)
	observability.SetRouteHooks(h)
	observability.SetCacheHooks(h)
}

func (h logHooks) OnSyncStart(_ context.Context, strategy, layoutID string) {
	h.logger.Debug("sync started", "strategy", strategy, "layout", layoutID)
}

func (h logHooks) OnPhase(_ context.Context, strategy, state string, progress float64) {
	h.logger.Debug("sync phase", "strategy", strategy, "state", state, "pct", int(progress*100))
}

func (h logHooks) OnMergePass(_ context.Context, border, multiplier, failed int) {
	h.logger.Debug("merge pass", "border", border, "multiplier", multiplier, "failed", failed)
}

func (h logHooks) OnSyncComplete(_ context.Context, strategy string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("sync aborted", "strategy", strategy, "duration", d, "err", err)
		return
	}
	h.logger.Debug("sync complete", "strategy", strategy, "duration", d)
}

func (h logHooks) OnRouteStart(_ context.Context, links int) {
	h.logger.Debug("routing", "links", links)
}

func (h logHooks) OnRouteComplete(_ context.Context, routed, failed int, d time.Duration) {
	h.logger.Debug("routing complete", "routed", routed, "failed", failed, "duration", d)
}

func (h logHooks) OnCacheHit(_ context.Context, kind string) {
	h.logger.Debug("cache hit", "kind", kind)
}

func (h logHooks) OnCacheMiss(_ context.Context, kind string) {
	h.logger.Debug("cache miss", "kind", kind)
}

func (h logHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.logger.Debug("cache set", "kind", kind, "bytes", size)
}

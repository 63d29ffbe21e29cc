package merge

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/regionsync/pkg/config"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/observability"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/result"
)

// Pass is one placement attempt's parameters. Border is the gap between
// regions in grid units; Multiplier scales the extra growth given to every
// region.
type Pass struct {
	Border     int
	Multiplier int
}

// Attempt places, merges and routes once with the given pass parameters.
// It works on its own copies and returns the candidate layout with its
// routing outcome.
type Attempt func(ctx context.Context, p Pass) (*layout.Layout, result.RoutingResult, error)

// Outcome is the result of [Engine.Run].
type Outcome struct {
	Layout *layout.Layout
	Result result.RoutingResult
	Pass   Pass

	// Attempts counts the passes that ran.
	Attempts int

	// Abandoned is set when the engine stopped early because the only
	// failures were landing pad collisions, which more room cannot fix.
	Abandoned bool
}

// Engine runs placement attempts with growing borders until one routes
// without a layout problem.
type Engine struct {
	Logger  *log.Logger
	Options config.LayoutOptions
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(logger *log.Logger, opts config.LayoutOptions) *Engine {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Engine{Logger: logger, Options: opts}
}

// Passes returns the pass schedule: border BorderSize+i and multiplier i
// for i from 0 to MaxExpansion, capped at [config.MaxExpansionCap].
func (e *Engine) Passes() []Pass {
	n := min(max(e.Options.MaxExpansion, 0), config.MaxExpansionCap)
	base := max(e.Options.BorderSize, 1)
	out := make([]Pass, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, Pass{Border: base + i, Multiplier: i})
	}
	return out
}

// Run executes the pass schedule. It stops at the first pass without a
// layout problem, and abandons the schedule when a pass failed only on
// landing pad collisions. Otherwise the least bad outcome seen is returned.
// The monitor in ctx is checked before every pass.
func (e *Engine) Run(ctx context.Context, attempt Attempt) (Outcome, error) {
	var (
		best  Outcome
		found bool
	)
	for _, p := range e.Passes() {
		if err := progress.Check(ctx); err != nil {
			return Outcome{}, err
		}
		l, res, err := attempt(ctx, p)
		if err != nil {
			return Outcome{}, err
		}
		best.Attempts++
		observability.Sync().OnMergePass(ctx, p.Border, p.Multiplier, len(res.Failed))
		e.Logger.Debug("merge pass", "border", p.Border, "multiplier", p.Multiplier, "result", res)

		if !found || best.Result.Worse(res) {
			best.Layout, best.Result, best.Pass = l, res, p
			found = true
		}
		if !res.HasLayoutProblem() {
			best.Layout, best.Result, best.Pass = l, res, p
			return best, nil
		}
		if res.OnlyPadCollisions() {
			e.Logger.Debug("abandoning expansion", "pad_failed", res.PadFailedLinks())
			best.Abandoned = true
			return best, nil
		}
	}
	e.Logger.Info("placement kept failures", "failed", best.Result.FailedLinks(), "border", best.Pass.Border)
	return best, nil
}

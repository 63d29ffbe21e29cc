package syncer

import (
	"context"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/regionsync/pkg/color"
	"github.com/matzehuels/regionsync/pkg/config"
	"github.com/matzehuels/regionsync/pkg/errors"
	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/grid"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/network"
	"github.com/matzehuels/regionsync/pkg/observability"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/region"
	"github.com/matzehuels/regionsync/pkg/result"
	"github.com/matzehuels/regionsync/pkg/route"
	"github.com/matzehuels/regionsync/pkg/txn"
)

// Request describes one synchronization.
type Request struct {
	Direction Direction

	// Instance relates the instance to its root network. For Down the
	// source is the root layout and the target the instance layout; for Up
	// the roles swap.
	Instance *network.Instance

	Source *layout.Layout

	// Target is changed only at commit, through [layout.Layout.ReplaceContents].
	Target *layout.Layout

	Options config.LayoutOptions

	// Strategy forces a strategy. Auto lets [Choose] decide.
	Strategy Strategy

	// TargetRegions names the regions rebuilt by SyncToExisting.
	TargetRegions []string

	// Exemptions lists target links whose geometry is kept as is.
	Exemptions []string

	// Colors assigns explicit colors to target source nodes.
	Colors map[string]string

	// KeepColors leaves existing link colors untouched.
	KeepColors bool
}

// Outcome is the result of a committed synchronization.
type Outcome struct {
	Strategy Strategy
	Result   result.RoutingResult

	// States lists every state the call passed through, starting with
	// Selected and ending in a terminal state.
	States []State

	// Delta summarizes the committed change.
	Delta txn.Delta

	// Passes counts the placement attempts, zero when none ran.
	Passes int
}

// Syncer runs synchronizations. A Syncer holds no per-call state; use a
// [Worker] to serialize calls from several goroutines.
type Syncer struct {
	Logger *log.Logger
	Sink   txn.Sink

	router     *route.Router
	decomposer *region.Decomposer
}

// New creates a syncer. A nil logger discards output and a nil sink keeps
// snapshots in memory.
func New(logger *log.Logger, sink txn.Sink) *Syncer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if sink == nil {
		sink = txn.NewMemorySink()
	}
	return &Syncer{
		Logger:     logger,
		Sink:       sink,
		router:     route.New(logger),
		decomposer: region.NewDecomposer(logger),
	}
}

// Sync synchronizes req.Target from req.Source.
//
// The chosen strategy works on a private clone of the target; the target
// itself changes once, at commit, inside a transaction of s.Sink. When the
// progress monitor in ctx stops the call, the transaction is rolled back and
// a CANCELLED error is returned with the target unchanged. Routing and color
// failures never abort the call; they are reported in Outcome.Result.
//
// Sync panics with a CONTRACT_VIOLATION error when the strategy is not
// defined for the direction, or DirectCopy is forced on an instance with
// repeated occurrences.
func (s *Syncer) Sync(ctx context.Context, req Request) (Outcome, error) {
	if err := validate(&req); err != nil {
		return Outcome{}, err
	}
	strategy := req.Strategy
	if strategy == Auto {
		strategy = Choose(req)
	}
	if !req.Direction.Allows(strategy) {
		errors.Contract("strategy %s is not defined for %s synchronization", strategy, req.Direction)
	}
	if strategy == DirectCopy && !req.Instance.SingleOccurrence() {
		errors.Contract("direct copy of instance %s with repeated occurrences", req.Instance.ID)
	}

	start := time.Now()
	observability.Sync().OnSyncStart(ctx, strategy.String(), req.Target.ID)
	s.Logger.Debug("sync", "strategy", strategy, "direction", req.Direction, "layout", req.Target.ID)

	j := s.newJob(ctx, req, strategy)
	out, err := j.run(ctx)

	observability.Sync().OnSyncComplete(ctx, strategy.String(), time.Since(start), err)
	if err != nil {
		s.Logger.Debug("sync failed", "strategy", strategy, "err", err)
	} else {
		s.Logger.Info("sync committed", "strategy", strategy, "layout", req.Target.ID, "result", out.Result)
	}
	return out, err
}

func validate(req *Request) error {
	if req.Instance == nil {
		return errors.New(errors.ErrCodeInvalidInput, "instance is required")
	}
	if req.Source == nil || req.Target == nil {
		return errors.New(errors.ErrCodeInvalidInput, "source and target layouts are required")
	}
	if req.Source == req.Target {
		return errors.New(errors.ErrCodeInvalidInput, "source and target must be different layouts")
	}
	req.Options.SetDefaults()
	if err := req.Options.Validate(); err != nil {
		return err
	}
	for _, id := range req.TargetRegions {
		r, ok := req.Instance.Region(id)
		if !ok {
			return errors.New(errors.ErrCodeRegionNotFound, "region %q not found in instance %s", id, req.Instance.ID)
		}
		if r.IsVirtualSubset() {
			return errors.New(errors.ErrCodeInvalidInput, "region %q is a virtual subset", id)
		}
	}
	if len(req.TargetRegions) > 0 && req.Direction == Up {
		return errors.New(errors.ErrCodeInvalidInput, "target regions apply to downward synchronization only")
	}
	return nil
}

// phases returns the progress phases of a strategy.
func phases(s Strategy) []progress.Phase {
	switch s {
	case DirectCopy:
		return []progress.Phase{{Name: "copy", Weight: 0.9}, {Name: "finalize", Weight: 0.1}}
	case FreshLayout:
		return []progress.Phase{{Name: "decompose", Weight: 0.25}, {Name: "merge", Weight: 0.25}, {Name: "squash", Weight: 0.25}, {Name: "finalize", Weight: 0.25}}
	case Incremental:
		return []progress.Phase{{Name: "prepare", Weight: 0.2}, {Name: "place", Weight: 0.3}, {Name: "route", Weight: 0.3}, {Name: "finalize", Weight: 0.2}}
	default:
		return []progress.Phase{{Name: "decompose", Weight: 0.2}, {Name: "recover", Weight: 0.2}, {Name: "merge", Weight: 0.4}, {Name: "finalize", Weight: 0.2}}
	}
}

// job is the state of one Sync call.
type job struct {
	*Syncer
	req      Request
	strategy Strategy
	m        mapping
	exempt   map[string]bool
	tracker  *progress.Tracker
	phase    string
	out      Outcome
}

func (s *Syncer) newJob(ctx context.Context, req Request, strategy Strategy) *job {
	exempt := make(map[string]bool, len(req.Exemptions))
	for _, id := range req.Exemptions {
		exempt[id] = true
	}
	j := &job{
		Syncer:   s,
		req:      req,
		strategy: strategy,
		m:        newMapping(req.Direction, req.Instance),
		exempt:   exempt,
		tracker:  progress.NewTracker(progress.FromContext(ctx), s.Logger, phases(strategy)...),
		out:      Outcome{Strategy: strategy, States: []State{Selected}},
	}
	return j
}

func (j *job) run(ctx context.Context) (Outcome, error) {
	h, err := j.Sink.Start(ctx, j.strategy.String(), j.req.Target)
	if err != nil {
		return j.out, errors.Wrap(errors.ErrCodeTransaction, err, "start transaction")
	}

	// A defect raised mid-strategy still closes the transaction.
	defer func() {
		if p := recover(); p != nil {
			j.rollback(ctx, h)
			panic(p)
		}
	}()

	scratch, err := j.execute(ctx)
	if err == nil {
		err = j.enter("finalize")
	}
	if err != nil {
		j.rollback(ctx, h)
		j.advance(ctx, RolledBack)
		if progress.Stopped(err) {
			return j.out, errors.Cancelled(j.phase)
		}
		return j.out, err
	}

	j.req.Target.ReplaceContents(scratch)
	d, err := j.Sink.Finish(ctx, h, j.req.Target)
	if err != nil {
		return j.out, errors.Wrap(errors.ErrCodeTransaction, err, "finish transaction")
	}
	j.out.Delta = d
	j.advance(ctx, Committed)
	_ = j.tracker.Done()
	return j.out, nil
}

// rollback abandons the transaction. The target was never touched; the
// rollback restores the snapshot in case a sink shares it.
func (j *job) rollback(ctx context.Context, h txn.Handle) {
	if err := j.Sink.Rollback(context.WithoutCancel(ctx), h, j.req.Target); err != nil {
		j.Logger.Warn("rollback failed", "layout", j.req.Target.ID, "err", err)
	}
}

func (j *job) execute(ctx context.Context) (*layout.Layout, error) {
	switch j.strategy {
	case DirectCopy:
		return j.directCopy(ctx)
	case FreshLayout:
		return j.freshLayout(ctx)
	case Incremental:
		return j.incremental(ctx)
	case SyncToExisting:
		return j.syncToExisting(ctx)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown strategy %s", j.strategy)
}

// enter starts a progress phase.
func (j *job) enter(name string) error {
	j.phase = name
	return j.tracker.Enter(name)
}

// state returns the current state.
func (j *job) state() State { return j.out.States[len(j.out.States)-1] }

// advance moves the state machine forward. Repeating the current state is a
// no-op; moving backward or out of a terminal state is a defect.
func (j *job) advance(ctx context.Context, st State) {
	cur := j.state()
	if st == cur {
		return
	}
	if cur.Terminal() || (st != RolledBack && st < cur) {
		errors.Contract("sync state %s cannot follow %s", st, cur)
	}
	j.out.States = append(j.out.States, st)
	observability.Sync().OnPhase(ctx, j.strategy.String(), st.String(), j.tracker.Value())
	j.Logger.Debug("sync state", "state", st, "phase", j.phase)
}

// routeLinks routes the given target links on l.
func (j *job) routeLinks(ctx context.Context, l *layout.Layout, links []string, frozen geom.PointSet) (result.RoutingResult, error) {
	return j.router.MultiPassLayout(ctx, route.Request{
		Links:      links,
		Net:        j.m.net,
		Layout:     l,
		Options:    j.req.Options,
		Exemptions: j.exempt,
		Frozen:     frozen,
	})
}

// colorLinks assigns link colors on l and returns the color outcome.
func (j *job) colorLinks(l *layout.Layout) result.RoutingResult {
	return color.AssignColors(l, grid.FromLayout(l), color.Request{
		Explicit:     j.req.Colors,
		KeepExisting: j.req.KeepColors,
		Palette:      j.req.Options.Palette,
	}).Result()
}

// mappedLinks returns the target links with a source counterpart, sorted.
func (j *job) mappedLinks() []string {
	return slices.Sorted(maps.Keys(j.m.links))
}

// missing returns the links of ids without geometry in l.
func missing(l *layout.Layout, ids []string) []string {
	var out []string
	for _, id := range ids {
		if !l.HasLink(id) {
			out = append(out, id)
		}
	}
	return out
}

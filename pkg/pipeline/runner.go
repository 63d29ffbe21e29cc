package pipeline

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/regionsync/pkg/cache"
	"github.com/matzehuels/regionsync/pkg/errors"
	"github.com/matzehuels/regionsync/pkg/graph"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/network"
	"github.com/matzehuels/regionsync/pkg/progress"
	"github.com/matzehuels/regionsync/pkg/syncer"
	"github.com/matzehuels/regionsync/pkg/txn"
)

// Runner encapsulates layout operations with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the sink and the logger.
// Multiple goroutines can safely use the same Runner with different
// documents.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Sink receives the transactions of every synchronization. Nil keeps
	// snapshots in memory.
	Sink txn.Sink

	// Worker, when set, serializes synchronizations; Sink and the per-call
	// logger are then those of the worker's syncer.
	Worker *syncer.Worker
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// entry is the cached form of a single-layout result.
type entry struct {
	Layout *layout.Layout `json:"layout"`
	Report Report         `json:"report"`
}

// Sync synchronizes the instance layout named by opts with the root layout
// and returns the document with the target layout replaced. The input
// document is never modified. A missing target layout starts out empty.
func (r *Runner) Sync(ctx context.Context, doc graph.Document, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()

	m, err := doc.Model()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "build model")
	}
	in, ok := m.Instance(opts.Instance)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "instance %s not found", opts.Instance)
	}
	srcKey, dstKey := opts.sourceTarget()
	src, ok := doc.Layout(srcKey)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "source layout %s missing", srcKey)
	}
	dst := layout.New(dstKey)
	if l, ok := doc.Layout(dstKey); ok {
		dst = l.Clone()
	}

	docHash, err := hashDocument(doc)
	if err != nil {
		return nil, err
	}
	key := r.Keyer.SyncKey(docHash, opts.SyncKeyOpts())
	res := &Result{DocumentHash: docHash, Target: dstKey}

	if !opts.Refresh {
		var cached entry
		if err := cache.GetJSON(ctx, r.Cache, key, &cached); err == nil && cached.Layout != nil {
			res.finish(doc, cached, true, start)
			opts.Logger.Info("sync served from cache", "instance", in.ID, "target", dstKey)
			return res, nil
		}
	}

	if opts.Monitor != nil {
		ctx = progress.WithMonitor(ctx, opts.Monitor)
	}
	out, err := r.runSync(ctx, opts.Logger, syncer.Request{
		Direction:     opts.direction,
		Instance:      in,
		Source:        src,
		Target:        dst,
		Options:       opts.Layout,
		Strategy:      opts.strategy,
		TargetRegions: opts.Regions,
		Exemptions:    opts.Exemptions,
		Colors:        opts.Colors,
		KeepColors:    opts.KeepColors,
	})
	if err != nil {
		return nil, err
	}

	fresh := entry{Layout: dst, Report: SyncReport(out)}
	r.store(ctx, key, fresh, cache.TTLSync)
	res.finish(doc, fresh, false, start)
	opts.Logger.Info("synchronized",
		"instance", in.ID,
		"direction", opts.Direction,
		"strategy", out.Strategy,
		"clean", out.Result.Clean(),
		"duration", res.Stats.Duration)
	return res, nil
}

func (r *Runner) runSync(ctx context.Context, logger *log.Logger, req syncer.Request) (out syncer.Outcome, err error) {
	defer recoverContract(&err)
	if r.Worker != nil {
		return r.Worker.Sync(ctx, req)
	}
	return syncer.New(logger, r.Sink).Sync(ctx, req)
}

// store writes a cache entry, retrying transient backend failures. Cache
// failures are logged and never fail the operation.
func (r *Runner) store(ctx context.Context, key string, e entry, ttl time.Duration) {
	err := cache.RetryWithBackoff(ctx, func() error {
		return cache.SetJSON(ctx, r.Cache, key, e, ttl)
	})
	if err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func (res *Result) finish(doc graph.Document, e entry, hit bool, start time.Time) {
	res.Document = withLayout(doc, res.Target, e.Layout)
	res.Report = e.Report
	res.CacheHit = hit
	res.Stats = Stats{
		Nodes:    len(e.Layout.Nodes),
		Links:    len(e.Layout.Links()),
		Duration: time.Since(start),
	}
}

// withLayout returns a shallow copy of doc with one layout replaced.
func withLayout(doc graph.Document, id string, l *layout.Layout) graph.Document {
	doc.Layouts = maps.Clone(doc.Layouts)
	doc.SetLayout(id, l)
	return doc
}

func hashDocument(doc graph.Document) (string, error) {
	data, err := graph.MarshalDocument(doc)
	if err != nil {
		return "", fmt.Errorf("serialize document for cache key: %w", err)
	}
	return cache.Hash(data), nil
}

// netFor resolves the network a layout is drawn for: the root network for
// the root layout, an instance view otherwise.
func netFor(m *network.Model, layoutID string) (*network.Network, error) {
	if layoutID == graph.RootLayout {
		return m.Root, nil
	}
	in, ok := m.Instance(layoutID)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "instance %s not found", layoutID)
	}
	return in.View(), nil
}

// recoverContract turns a contract violation raised by the layout core into
// an error. Other panics propagate.
func recoverContract(err *error) {
	p := recover()
	if p == nil {
		return
	}
	if e, ok := p.(error); ok && errors.Is(e, errors.ErrCodeContractViolation) {
		*err = e
		return
	}
	panic(p)
}

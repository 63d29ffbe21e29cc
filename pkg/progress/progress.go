// Package progress implements the cooperative progress and cancellation
// monitor polled by every long-running layout loop.
//
// # Monitor
//
// A [Monitor] answers two questions: should work continue ([Monitor.KeepGoing])
// and, after a progress report, does the caller still want the result
// ([Monitor.UpdateProgress] returning false is a cancellation request).
//
// Monitors travel in the context. Loops call [Check] at every expensive
// boundary (per region, per pass, per link):
//
//	ctx = progress.WithMonitor(ctx, monitor)
//	for _, link := range links {
//	    if err := progress.Check(ctx); err != nil {
//	        return err
//	    }
//	    ...
//	}
//
// # Phases
//
// A [Tracker] maps statically weighted phases onto a single monotonically
// increasing fraction, so a cancellation in the middle of a phase still
// reports a sane value.
package progress

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrStopped is returned by [Check] and [Tracker] methods when the monitor
// asks to stop.
var ErrStopped = errors.New("stopped by progress monitor")

// Monitor is the progress and cancellation capability provided by the caller.
type Monitor interface {
	// KeepGoing reports whether work should continue.
	KeepGoing() bool
	// UpdateProgress reports a fraction in [0,1]. A false return requests
	// cancellation.
	UpdateProgress(fraction float64) bool
}

// Nop is a monitor that never stops and discards progress.
type Nop struct{}

func (Nop) KeepGoing() bool            { return true }
func (Nop) UpdateProgress(float64) bool { return true }

type monitorKey struct{}

// WithMonitor returns a context carrying m.
func WithMonitor(ctx context.Context, m Monitor) context.Context {
	return context.WithValue(ctx, monitorKey{}, m)
}

// FromContext returns the monitor carried by ctx, or [Nop].
func FromContext(ctx context.Context) Monitor {
	if m, ok := ctx.Value(monitorKey{}).(Monitor); ok && m != nil {
		return m
	}
	return Nop{}
}

// Check returns the context error, or ErrStopped when the monitor asks to
// stop, or nil.
func Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !FromContext(ctx).KeepGoing() {
		return ErrStopped
	}
	return nil
}

// Stopped reports whether err came from [Check] or a cancelled context.
func Stopped(err error) bool {
	return errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// =============================================================================
// Monitors
// =============================================================================

// ContextMonitor keeps going until its context is done.
type ContextMonitor struct {
	Ctx context.Context
}

func (m ContextMonitor) KeepGoing() bool { return m.Ctx.Err() == nil }

func (m ContextMonitor) UpdateProgress(float64) bool { return m.KeepGoing() }

// LogMonitor logs progress updates and delegates decisions to Next.
type LogMonitor struct {
	Logger *log.Logger
	Next   Monitor
}

func (m LogMonitor) next() Monitor {
	if m.Next == nil {
		return Nop{}
	}
	return m.Next
}

func (m LogMonitor) KeepGoing() bool { return m.next().KeepGoing() }

func (m LogMonitor) UpdateProgress(f float64) bool {
	if m.Logger != nil {
		m.Logger.Debug("progress", "pct", int(f*100))
	}
	return m.next().UpdateProgress(f)
}

// ChanMonitor forwards progress to a channel without blocking; updates are
// dropped when the reader falls behind. It stops when Stop is closed.
type ChanMonitor struct {
	C    chan<- float64
	Stop <-chan struct{}
}

func (m ChanMonitor) KeepGoing() bool {
	select {
	case <-m.Stop:
		return false
	default:
		return true
	}
}

func (m ChanMonitor) UpdateProgress(f float64) bool {
	select {
	case m.C <- f:
	default:
	}
	return m.KeepGoing()
}

// Recorder records every reported fraction. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	values []float64
	// StopAfter, when positive, makes the recorder request cancellation
	// once that many updates were reported.
	StopAfter int
}

func (r *Recorder) KeepGoing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.StopAfter <= 0 || len(r.values) < r.StopAfter
}

func (r *Recorder) UpdateProgress(f float64) bool {
	r.mu.Lock()
	r.values = append(r.values, f)
	r.mu.Unlock()
	return r.KeepGoing()
}

// Values returns a copy of the recorded fractions.
func (r *Recorder) Values() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.values...)
}

// =============================================================================
// Weighted Phases
// =============================================================================

// Phase is one statically weighted step of an operation.
type Phase struct {
	Name   string
	Weight float64
}

// Tracker turns phase-relative progress into an overall fraction.
type Tracker struct {
	monitor Monitor
	phases  []Phase
	total   float64
	index   int
	base    float64
	last    float64
	logger  *log.Logger
}

// NewTracker creates a tracker for the phases. Weights are normalized, so
// they need not sum to one.
func NewTracker(m Monitor, logger *log.Logger, phases ...Phase) *Tracker {
	if m == nil {
		m = Nop{}
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	t := &Tracker{monitor: m, phases: phases, index: -1, logger: logger}
	for _, p := range phases {
		t.total += p.Weight
	}
	return t
}

// Enter starts the named phase and reports the progress reached so far.
// Phases must be entered in declaration order; entering a later phase skips
// the ones in between.
func (t *Tracker) Enter(name string) error {
	for i := t.index + 1; i < len(t.phases); i++ {
		if t.phases[i].Name == name {
			t.base = t.sumBefore(i)
			t.index = i
			t.logger.Debug("phase", "name", name, "pct", int(t.base*100))
			return t.report(t.base)
		}
	}
	return t.report(t.last)
}

func (t *Tracker) sumBefore(i int) float64 {
	if t.total <= 0 {
		return 0
	}
	var s float64
	for _, p := range t.phases[:i] {
		s += p.Weight
	}
	return s / t.total
}

// Step reports a fraction of the current phase.
func (t *Tracker) Step(frac float64) error {
	if t.index < 0 || t.total <= 0 {
		return t.report(t.last)
	}
	frac = min(max(frac, 0), 1)
	w := t.phases[t.index].Weight / t.total
	return t.report(t.base + w*frac)
}

// Done reports completion.
func (t *Tracker) Done() error {
	t.index = len(t.phases) - 1
	return t.report(1)
}

// Value returns the last reported fraction.
func (t *Tracker) Value() float64 { return t.last }

func (t *Tracker) report(f float64) error {
	if f < t.last {
		f = t.last
	}
	t.last = f
	if !t.monitor.UpdateProgress(f) {
		return ErrStopped
	}
	return nil
}

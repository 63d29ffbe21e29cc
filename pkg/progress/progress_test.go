package progress

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestCheck(t *testing.T) {
	if err := Check(context.Background()); err != nil {
		t.Errorf("Check(background) = %v, want nil", err)
	}

	r := &Recorder{StopAfter: 1}
	ctx := WithMonitor(context.Background(), r)
	if err := Check(ctx); err != nil {
		t.Errorf("Check() before updates = %v, want nil", err)
	}
	r.UpdateProgress(0.1)
	if err := Check(ctx); !errors.Is(err, ErrStopped) {
		t.Errorf("Check() = %v, want ErrStopped", err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Check(cctx); !Stopped(err) {
		t.Errorf("Check(cancelled) = %v, want a stop", err)
	}
}

func TestTrackerQuarterPhases(t *testing.T) {
	r := &Recorder{}
	tr := NewTracker(r, nil,
		Phase{"decompose", 1}, Phase{"merge", 1}, Phase{"squash", 1}, Phase{"finalize", 1})

	_ = tr.Enter("decompose")
	_ = tr.Step(0.5)
	_ = tr.Enter("merge")
	_ = tr.Enter("finalize") // squash skipped
	_ = tr.Step(1)
	_ = tr.Done()

	want := []float64{0, 0.125, 0.25, 0.75, 1, 1}
	if got := r.Values(); !slices.Equal(got, want) {
		t.Errorf("progress = %v, want %v", got, want)
	}
}

func TestTrackerMonotonic(t *testing.T) {
	r := &Recorder{}
	tr := NewTracker(r, nil, Phase{"a", 1}, Phase{"b", 1})
	_ = tr.Enter("b")
	_ = tr.Enter("a") // out of order: no regression
	_ = tr.Step(0)

	vals := r.Values()
	for i := 1; i < len(vals); i++ {
		if vals[i] < vals[i-1] {
			t.Fatalf("progress decreased: %v", vals)
		}
	}
}

func TestTrackerStops(t *testing.T) {
	r := &Recorder{StopAfter: 2}
	tr := NewTracker(r, nil, Phase{"a", 1}, Phase{"b", 1})
	if err := tr.Enter("a"); err != nil {
		t.Fatalf("Enter(a) = %v", err)
	}
	if err := tr.Enter("b"); !errors.Is(err, ErrStopped) {
		t.Errorf("Enter(b) = %v, want ErrStopped", err)
	}
}

func TestChanMonitor(t *testing.T) {
	ch := make(chan float64, 1)
	stop := make(chan struct{})
	m := ChanMonitor{C: ch, Stop: stop}

	if !m.UpdateProgress(0.3) {
		t.Error("UpdateProgress() = false before stop")
	}
	// Full channel: the update is dropped, not blocked on.
	m.UpdateProgress(0.4)
	if got := <-ch; got != 0.3 {
		t.Errorf("received %v, want 0.3", got)
	}
	close(stop)
	if m.KeepGoing() {
		t.Error("KeepGoing() = true after stop")
	}
}

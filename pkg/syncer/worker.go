package syncer

import (
	"context"
	"errors"
	"sync"
)

// ErrWorkerClosed is returned by [Worker.Sync] after [Worker.Close].
var ErrWorkerClosed = errors.New("sync worker closed")

// Worker runs synchronizations one at a time on a single goroutine. Layouts
// are not safe for concurrent mutation; a Worker is how several callers
// share one Syncer.
type Worker struct {
	syncer *Syncer
	calls  chan call
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

type call struct {
	ctx   context.Context
	req   Request
	reply chan reply
}

type reply struct {
	out       Outcome
	err       error
	recovered any
}

// NewWorker starts a worker for s.
func NewWorker(s *Syncer) *Worker {
	w := &Worker{
		syncer: s,
		calls:  make(chan call),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case c := <-w.calls:
			c.reply <- w.serve(c)
		case <-w.done:
			return
		}
	}
}

func (w *Worker) serve(c call) (r reply) {
	defer func() {
		if p := recover(); p != nil {
			r = reply{recovered: p}
		}
	}()
	out, err := w.syncer.Sync(c.ctx, c.req)
	return reply{out: out, err: err}
}

// Sync queues req and waits for its outcome. A call still waiting for the
// worker returns the context error when ctx ends; a running call observes
// ctx through its progress checks. Contract violations panic in the
// caller's goroutine.
func (w *Worker) Sync(ctx context.Context, req Request) (Outcome, error) {
	c := call{ctx: ctx, req: req, reply: make(chan reply, 1)}
	select {
	case w.calls <- c:
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-w.done:
		return Outcome{}, ErrWorkerClosed
	}
	r := <-c.reply
	if r.recovered != nil {
		panic(r.recovered)
	}
	return r.out, r.err
}

// Close stops the worker after the running call, if any, completes.
func (w *Worker) Close() {
	w.once.Do(func() { close(w.done) })
	w.wg.Wait()
}

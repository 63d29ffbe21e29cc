package txn

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/regionsync/pkg/layout"
)

// MemorySink snapshots the layout at Start and restores the snapshot on
// Rollback. It is safe for concurrent use.
type MemorySink struct {
	mu   sync.Mutex
	open map[uuid.UUID]*layout.Layout
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{open: make(map[uuid.UUID]*layout.Layout)}
}

func (s *MemorySink) Start(ctx context.Context, label string, l *layout.Layout) (Handle, error) {
	h := NewHandle(label, l)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[h.ID] = l.Clone()
	return h, nil
}

func (s *MemorySink) Finish(ctx context.Context, h Handle, l *layout.Layout) (Delta, error) {
	snap, err := s.take(h)
	if err != nil {
		return Delta{}, err
	}
	d := Diff(snap, l)
	d.ID, d.LayoutID, d.Label = h.ID.String(), h.LayoutID, h.Label
	d.Started, d.Finished = h.Started, time.Now()
	return d, nil
}

func (s *MemorySink) Rollback(ctx context.Context, h Handle, l *layout.Layout) error {
	snap, err := s.take(h)
	if err != nil {
		return err
	}
	l.ReplaceContents(snap)
	return nil
}

// Open returns the number of transactions not yet finished or rolled back.
func (s *MemorySink) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

func (s *MemorySink) take(h Handle) (*layout.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.open[h.ID]
	if !ok {
		return nil, ErrUnknownHandle
	}
	delete(s.open, h.ID)
	return snap, nil
}

var _ Sink = (*MemorySink)(nil)

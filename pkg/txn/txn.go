// Package txn brackets layout mutations in transactions.
//
// Every synchronization opens a transaction on the layout it is about to
// change, and either finishes it (recording what changed as a [Delta]) or
// rolls it back (restoring the layout as it was when the transaction
// started). The host application plugs in its own [Sink] to integrate with
// its undo history; [MemorySink] is a self-contained implementation that
// snapshots the layout.
//
// Finished deltas can be appended to a [Journal]: [FileJournal] keeps them as
// JSON files for the CLI, [MongoJournal] stores them in a MongoDB collection
// for the server. [Journaled] combines a sink with a journal.
//
// # Usage
//
//	sink := txn.NewMemorySink()
//	h, err := sink.Start(ctx, "fresh-layout", target)
//	if err != nil {
//	    return err
//	}
//	// ... mutate target ...
//	delta, err := sink.Finish(ctx, h, target)
package txn

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/regionsync/pkg/layout"
)

// Sentinel errors for transaction operations.
var (
	// ErrUnknownHandle is returned when a handle was never started, or was
	// already finished or rolled back.
	ErrUnknownHandle = errors.New("unknown transaction handle")
)

// Handle identifies one open transaction.
type Handle struct {
	ID       uuid.UUID
	LayoutID string
	Label    string
	Started  time.Time
}

// Sink opens and closes transactions on a layout.
type Sink interface {
	// Start opens a transaction before l is mutated. label names the
	// operation for the undo history.
	Start(ctx context.Context, label string, l *layout.Layout) (Handle, error)

	// Finish closes the transaction after l was mutated and returns what
	// changed.
	Finish(ctx context.Context, h Handle, l *layout.Layout) (Delta, error)

	// Rollback closes the transaction and restores l to its state at
	// Start.
	Rollback(ctx context.Context, h Handle, l *layout.Layout) error
}

// Journal stores finished deltas.
type Journal interface {
	Append(ctx context.Context, d Delta) error
}

// NewHandle creates a handle with a fresh random ID.
func NewHandle(label string, l *layout.Layout) Handle {
	return Handle{ID: uuid.New(), LayoutID: l.ID, Label: label, Started: time.Now()}
}

// Journaled is a sink that appends every finished delta to a journal.
// Rolled back transactions are not journaled.
type Journaled struct {
	Sink
	Journal Journal
}

// Finish finishes the transaction in the wrapped sink, then appends the
// delta. A journal failure is returned together with the delta; the
// transaction itself stays finished.
func (j Journaled) Finish(ctx context.Context, h Handle, l *layout.Layout) (Delta, error) {
	d, err := j.Sink.Finish(ctx, h, l)
	if err != nil {
		return d, err
	}
	if j.Journal != nil {
		if err := j.Journal.Append(ctx, d); err != nil {
			return d, err
		}
	}
	return d, nil
}

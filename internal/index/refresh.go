package index

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/energy-blueprint/leaderboard/internal/domain"
)

// Snapshot is one committed refresh result. The run slice is immutable;
// a new refresh replaces the whole snapshot atomically, so in-flight
// queries keep a consistent view.
type Snapshot struct {
	Runs      []domain.Run
	RefreshID string
	BuiltAt   time.Time

	// Err carries the failure message when the refresh failed totally;
	// the snapshot then holds zero rows.
	Err string
}

// Refresh identifies one requested rebuild.
type Refresh struct {
	Token uint64
	ID    string
}

// Tracker serializes refresh supersession: a refresh requested while an
// earlier one is still in flight cancels it, and a superseded refresh
// that still manages to finish is discarded at commit time.
type Tracker struct {
	mu        sync.Mutex
	issued    uint64
	committed uint64
	cancel    context.CancelFunc

	current atomic.Pointer[Snapshot]
}

func NewTracker() *Tracker {
	t := &Tracker{}
	t.current.Store(&Snapshot{})
	return t
}

// Begin registers a new refresh, cancelling any in-flight one, and
// returns the context the build must run under.
func (t *Tracker) Begin(ctx context.Context) (context.Context, Refresh) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	ctx, t.cancel = context.WithCancel(ctx)
	t.issued++
	return ctx, Refresh{Token: t.issued, ID: uuid.NewString()}
}

// Commit installs a build result. It reports false when the refresh was
// superseded; stale results are discarded silently, not errors. Only the
// most recently issued refresh may commit: a cancelled build that limps
// to completion must never replace a good snapshot.
func (t *Tracker) Commit(ref Refresh, runs []domain.Run, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ref.Token < t.issued || ref.Token <= t.committed {
		return false
	}
	t.committed = ref.Token

	snap := &Snapshot{RefreshID: ref.ID, BuiltAt: time.Now().UTC()}
	if err != nil {
		snap.Err = err.Error()
	} else {
		snap.Runs = runs
	}
	t.current.Store(snap)
	return true
}

// Current returns the active snapshot.
func (t *Tracker) Current() *Snapshot {
	return t.current.Load()
}

// Ready reports whether at least one refresh has been committed, even a
// failed one.
func (t *Tracker) Ready() bool {
	return !t.Current().BuiltAt.IsZero()
}

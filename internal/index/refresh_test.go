package index

import (
	"context"
	"errors"
	"testing"

	"github.com/energy-blueprint/leaderboard/internal/domain"
)

func TestTrackerStartsEmpty(t *testing.T) {
	tr := NewTracker()
	if tr.Ready() {
		t.Fatalf("tracker must not be ready before the first commit")
	}
	if snap := tr.Current(); snap == nil || len(snap.Runs) != 0 {
		t.Fatalf("expected an empty placeholder snapshot, got %+v", snap)
	}
}

func TestBeginCancelsInFlightRefresh(t *testing.T) {
	tr := NewTracker()
	ctxA, _ := tr.Begin(context.Background())
	ctxB, _ := tr.Begin(context.Background())

	select {
	case <-ctxA.Done():
	default:
		t.Fatalf("first refresh context must be cancelled by the second Begin")
	}
	select {
	case <-ctxB.Done():
		t.Fatalf("second refresh context must stay live")
	default:
	}
}

func TestSupersededCommitDiscarded(t *testing.T) {
	tr := NewTracker()
	_, refA := tr.Begin(context.Background())
	_, refB := tr.Begin(context.Background())

	runsB := []domain.Run{{ID: "from-b"}}
	if !tr.Commit(refB, runsB, nil) {
		t.Fatalf("latest refresh must commit")
	}
	// The older build finishes late; its result is dropped.
	if tr.Commit(refA, []domain.Run{{ID: "from-a"}}, nil) {
		t.Fatalf("superseded refresh must not commit")
	}
	snap := tr.Current()
	if len(snap.Runs) != 1 || snap.Runs[0].ID != "from-b" {
		t.Fatalf("expected the newer result to stay installed, got %+v", snap.Runs)
	}
	if snap.RefreshID != refB.ID {
		t.Fatalf("expected refresh id %s got %s", refB.ID, snap.RefreshID)
	}
}

func TestSupersededCommitCannotReplaceGoodSnapshot(t *testing.T) {
	tr := NewTracker()
	_, refA := tr.Begin(context.Background())
	if !tr.Commit(refA, []domain.Run{{ID: "good"}}, nil) {
		t.Fatalf("initial commit rejected")
	}

	ctxB, refB := tr.Begin(context.Background())
	_, refC := tr.Begin(context.Background())

	// B was cancelled by C but finishes first, carrying its cancellation
	// as a build failure. It must not commit while C is in flight.
	if tr.Commit(refB, nil, ctxB.Err()) {
		t.Fatalf("superseded refresh committed a failure snapshot")
	}
	snap := tr.Current()
	if len(snap.Runs) != 1 || snap.Runs[0].ID != "good" || snap.Err != "" {
		t.Fatalf("good snapshot was replaced: %+v", snap)
	}

	if !tr.Commit(refC, []domain.Run{{ID: "newer"}}, nil) {
		t.Fatalf("latest refresh must commit")
	}
	if tr.Current().Runs[0].ID != "newer" {
		t.Fatalf("expected the latest result, got %s", tr.Current().Runs[0].ID)
	}
}

func TestSequentialCommitsAdvance(t *testing.T) {
	tr := NewTracker()
	_, refA := tr.Begin(context.Background())
	if !tr.Commit(refA, []domain.Run{{ID: "a"}}, nil) {
		t.Fatalf("first commit rejected")
	}
	_, refB := tr.Begin(context.Background())
	if !tr.Commit(refB, []domain.Run{{ID: "b"}}, nil) {
		t.Fatalf("second commit rejected")
	}
	if tr.Current().Runs[0].ID != "b" {
		t.Fatalf("expected the later snapshot, got %s", tr.Current().Runs[0].ID)
	}
}

func TestFailedRefreshStillCommits(t *testing.T) {
	tr := NewTracker()
	_, ref := tr.Begin(context.Background())
	if !tr.Commit(ref, nil, errors.New("repository unreachable")) {
		t.Fatalf("failed refresh must still commit its outcome")
	}
	snap := tr.Current()
	if snap.Err == "" || len(snap.Runs) != 0 {
		t.Fatalf("expected an error snapshot, got %+v", snap)
	}
	if !tr.Ready() {
		t.Fatalf("a failed refresh still marks the tracker ready")
	}
}

package memory

import (
	"testing"
	"time"
)

func TestProgressStoreDefaults(t *testing.T) {
	store := NewProgressStore()
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

	progress := store.GetOrCreate("u1", now)
	if progress.CurrentDifficulty != 5 {
		t.Fatalf("expected default difficulty 5, got %d", progress.CurrentDifficulty)
	}
	if progress.StateVersion != 0 || progress.TotalScore != 0 || progress.Streak != 0 {
		t.Fatalf("unexpected defaults: %+v", progress)
	}
	if !progress.LastAnswerAt.Equal(now) {
		t.Fatalf("expected creation time as lastAnswerAt")
	}

	// Second access returns the same record, not a fresh one.
	progress.TotalScore = 90
	store.Put(progress)
	again := store.GetOrCreate("u1", now.Add(time.Hour))
	if again.TotalScore != 90 {
		t.Fatalf("expected stored record, got %+v", again)
	}
}

func TestProgressStoreSnapshotKeepsInsertionOrder(t *testing.T) {
	store := NewProgressStore()
	now := time.Now()

	for _, id := range []string{"c", "a", "b"} {
		store.GetOrCreate(id, now)
	}

	snapshot := store.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 records, got %d", len(snapshot))
	}
	for i, want := range []string{"c", "a", "b"} {
		if snapshot[i].UserID != want {
			t.Fatalf("expected insertion order, got %+v", snapshot)
		}
	}
}

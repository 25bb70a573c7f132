package budget

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/clock"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

func newTestCloseout(t *testing.T, store storage.Store, now time.Time) *CloseoutScheduler {
	t.Helper()
	var mu sync.Mutex
	cs, err := NewCloseoutScheduler(store, &mu, "00:00", 90, &clock.TestClock{CurrentTime: now}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new closeout scheduler: %v", err)
	}
	return cs
}

func TestNewCloseoutSchedulerRejectsBadTime(t *testing.T) {
	var mu sync.Mutex
	_, err := NewCloseoutScheduler(newFakeStore(), &mu, "25:99", 90, clock.RealClock{}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for invalid reset time")
	}
}

func TestCloseOutRollsOverUnusedAllowance(t *testing.T) {
	// Closeout runs just after midnight June 2. Yesterday (June 1) had
	// 45 minutes of play against a 120 minute allowance.
	now := time.Date(2025, 6, 2, 0, 0, 5, 0, time.UTC)
	yesterday := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.settings.RolloverDays = 3
	store.intervals = []storage.Interval{
		{Start: yesterday, End: yesterday.Add(45 * time.Minute)},
		// Session already started today; must not count against yesterday.
		{Start: now.Add(-2 * time.Second), End: now},
	}

	newTestCloseout(t, store, now).CloseOut(context.Background())

	if len(store.rollover) != 1 {
		t.Fatalf("expected one rollover entry, got %d", len(store.rollover))
	}
	entry := store.rollover[0]
	if entry.Date != "2025-06-01" {
		t.Fatalf("rollover must be keyed by the closed day, got %s", entry.Date)
	}
	if entry.UnusedMinutes != 75 {
		t.Fatalf("expected 75 unused minutes, got %d", entry.UnusedMinutes)
	}
	if want := now.Add(3 * 24 * time.Hour); !entry.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, entry.ExpiresAt)
	}
}

func TestCloseOutClampsOverspentDayToZero(t *testing.T) {
	now := time.Date(2025, 6, 2, 0, 0, 5, 0, time.UTC)
	yesterday := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.settings.DailyAllowanceMinutes = 60
	store.intervals = []storage.Interval{
		{Start: yesterday, End: yesterday.Add(3 * time.Hour)},
	}

	newTestCloseout(t, store, now).CloseOut(context.Background())

	if len(store.rollover) != 1 || store.rollover[0].UnusedMinutes != 0 {
		t.Fatalf("overspent day must roll over zero, got %+v", store.rollover)
	}
}

func TestCloseOutOverlapCountedOnce(t *testing.T) {
	now := time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC)
	yesterday := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.intervals = []storage.Interval{
		{Start: yesterday, End: yesterday.Add(30 * time.Minute)},
		{Start: yesterday.Add(15 * time.Minute), End: yesterday.Add(45 * time.Minute)},
	}

	newTestCloseout(t, store, now).CloseOut(context.Background())

	// 45 merged minutes against the 120 allowance.
	if got := store.rollover[0].UnusedMinutes; got != 75 {
		t.Fatalf("expected 75 unused minutes from merged usage, got %d", got)
	}
}

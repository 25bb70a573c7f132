package redis

import (
	"context"
	"testing"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/config"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	"github.com/alicebob/miniredis/v2"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := config.RedisConfig{
		Host:         mr.Addr(), // full "host:port", so Port stays 0
		Port:         0,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	}

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func completedSession(id string, start time.Time, minutes int) storage.GameSession {
	end := start.Add(time.Duration(minutes) * time.Minute)
	duration := int64(minutes * 60)
	return storage.GameSession{
		ID:              id,
		GameName:        "Celeste",
		ProcessName:     "celeste.exe",
		StartTime:       start,
		EndTime:         &end,
		DurationSeconds: &duration,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	session := completedSession("s1", start, 30)
	session.IsConcurrent = true
	session.ConcurrentSessionIDs = []string{"s2", "s3"}

	if err := store.Sessions().Save(ctx, session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	sessions, err := store.Sessions().Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(sessions))
	}

	got := sessions[0]
	if got.ID != "s1" || got.GameName != "Celeste" {
		t.Errorf("Unexpected session identity: %+v", got)
	}
	if !got.StartTime.Equal(start) {
		t.Errorf("Expected start %v, got %v", start, got.StartTime)
	}
	if got.DurationSeconds == nil || *got.DurationSeconds != 1800 {
		t.Errorf("Unexpected duration: %v", got.DurationSeconds)
	}
	if !got.IsConcurrent || len(got.ConcurrentSessionIDs) != 2 {
		t.Errorf("Concurrency fields lost: %+v", got)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		s := completedSession(id, base.Add(time.Duration(i)*time.Hour), 10)
		if err := store.Sessions().Save(ctx, s); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	sessions, err := store.Sessions().Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "c" || sessions[1].ID != "b" {
		t.Errorf("Expected order c, b; got %s, %s", sessions[0].ID, sessions[1].ID)
	}
}

func TestSinceFiltersByStartTime(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	midnight := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	yesterday := completedSession("old", midnight.Add(-2*time.Hour), 30)
	today := completedSession("new", midnight.Add(9*time.Hour), 45)
	open := storage.GameSession{
		ID:          "open",
		GameName:    "Celeste",
		ProcessName: "celeste.exe",
		StartTime:   midnight.Add(10 * time.Hour),
	}

	for _, s := range []storage.GameSession{yesterday, today, open} {
		if err := store.Sessions().Save(ctx, s); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	intervals, err := store.Sessions().Since(ctx, midnight)
	if err != nil {
		t.Fatalf("Since failed: %v", err)
	}
	if len(intervals) != 1 {
		t.Fatalf("Expected 1 interval, got %d", len(intervals))
	}
	if !intervals[0].Start.Equal(today.StartTime) {
		t.Errorf("Expected interval start %v, got %v", today.StartTime, intervals[0].Start)
	}
}

func TestDeleteSince(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	midnight := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	old := completedSession("old", midnight.Add(-time.Hour), 30)
	recent := completedSession("recent", midnight.Add(time.Hour), 30)

	for _, s := range []storage.GameSession{old, recent} {
		if err := store.Sessions().Save(ctx, s); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	n, err := store.Sessions().DeleteSince(ctx, midnight)
	if err != nil {
		t.Fatalf("DeleteSince failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 deleted, got %d", n)
	}

	sessions, err := store.Sessions().Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "old" {
		t.Errorf("Expected only old session to remain, got %+v", sessions)
	}
}

func TestDeleteCompletedBeforeKeepsOpenSessions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	done := completedSession("done", cutoff.Add(-48*time.Hour), 30)
	open := storage.GameSession{
		ID:          "open",
		GameName:    "Celeste",
		ProcessName: "celeste.exe",
		StartTime:   cutoff.Add(-48 * time.Hour),
	}

	for _, s := range []storage.GameSession{done, open} {
		if err := store.Sessions().Save(ctx, s); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	n, err := store.Sessions().DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteCompletedBefore failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 deleted, got %d", n)
	}

	sessions, err := store.Sessions().Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "open" {
		t.Errorf("Expected open session to survive, got %+v", sessions)
	}
}

func TestActivityLedger(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	midnight := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	entries := []storage.LearningActivity{
		{ID: "a1", ActivityType: "coding", DurationMinutes: 60, EarnedGamingMinutes: 15, Timestamp: midnight.Add(9 * time.Hour)},
		{ID: "a2", ActivityType: "reading", DurationMinutes: 60, EarnedGamingMinutes: 10, Timestamp: midnight.Add(11 * time.Hour)},
		{ID: "a3", ActivityType: "exercise", DurationMinutes: 30, EarnedGamingMinutes: 10, Timestamp: midnight.Add(-6 * time.Hour)},
	}
	for _, a := range entries {
		if err := store.Activities().Add(ctx, a); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	earned, err := store.Activities().EarnedMinutesSince(ctx, midnight)
	if err != nil {
		t.Fatalf("EarnedMinutesSince failed: %v", err)
	}
	if earned != 25 {
		t.Errorf("Expected 25 earned minutes, got %d", earned)
	}

	recent, err := store.Activities().Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "a2" || recent[1].ID != "a1" {
		t.Errorf("Unexpected recent activities: %+v", recent)
	}

	n, err := store.Activities().DeleteBefore(ctx, midnight)
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 pruned, got %d", n)
	}
}

func TestRolloverSumPrunesExpired(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 4, 0, 5, 0, 0, time.UTC)

	active := storage.RolloverEntry{Date: "2025-06-03", UnusedMinutes: 40, ExpiresAt: now.Add(48 * time.Hour)}
	expired := storage.RolloverEntry{Date: "2025-05-30", UnusedMinutes: 90, ExpiresAt: now.Add(-time.Hour)}

	for _, e := range []storage.RolloverEntry{active, expired} {
		if err := store.Rollover().Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	total, err := store.Rollover().SumActive(ctx, now)
	if err != nil {
		t.Fatalf("SumActive failed: %v", err)
	}
	if total != 40 {
		t.Errorf("Expected 40 active minutes, got %d", total)
	}

	// Expired entry stays gone even if the clock moves back.
	total, err = store.Rollover().SumActive(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("SumActive failed: %v", err)
	}
	if total != 40 {
		t.Errorf("Expected pruned entry to stay deleted, got %d", total)
	}
}

func TestRolloverUpsertReplacesSameDate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 4, 0, 5, 0, 0, time.UTC)
	entry := storage.RolloverEntry{Date: "2025-06-03", UnusedMinutes: 40, ExpiresAt: now.Add(48 * time.Hour)}

	if err := store.Rollover().Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	entry.UnusedMinutes = 55
	if err := store.Rollover().Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	total, err := store.Rollover().SumActive(ctx, now)
	if err != nil {
		t.Fatalf("SumActive failed: %v", err)
	}
	if total != 55 {
		t.Errorf("Expected 55 after replace, got %d", total)
	}
}

func TestSettingsDefaultsAndUpdates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	settings, err := store.Settings().Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if settings.DailyAllowanceMinutes != storage.DefaultDailyAllowanceMinutes {
		t.Errorf("Expected default allowance, got %d", settings.DailyAllowanceMinutes)
	}

	if err := store.Settings().Update(ctx, storage.SettingDailyAllowanceMinutes, "90"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := store.Settings().Update(ctx, storage.SettingRolloverDays, "not-a-number"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	settings, err = store.Settings().Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if settings.DailyAllowanceMinutes != 90 {
		t.Errorf("Expected allowance 90, got %d", settings.DailyAllowanceMinutes)
	}
	if settings.RolloverDays != storage.DefaultRolloverDays {
		t.Errorf("Expected malformed rollover_days to fall back, got %d", settings.RolloverDays)
	}
}

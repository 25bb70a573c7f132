package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/procs"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	"github.com/rs/zerolog"
)

type fakeSource struct {
	mu       sync.Mutex
	snapshot []procs.ProcessInfo
	err      error
}

func (f *fakeSource) set(snapshot []procs.ProcessInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = snapshot
}

func (f *fakeSource) ListProcesses(ctx context.Context) ([]procs.ProcessInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot, f.err
}

type fakeSessionStore struct {
	mu    sync.Mutex
	saved []storage.GameSession
	fail  bool
}

func (f *fakeSessionStore) Save(ctx context.Context, session storage.GameSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("write refused")
	}
	f.saved = append(f.saved, session)
	return nil
}

func (f *fakeSessionStore) Recent(ctx context.Context, limit int) ([]storage.GameSession, error) {
	return nil, nil
}

func (f *fakeSessionStore) Since(ctx context.Context, ts time.Time) ([]storage.Interval, error) {
	return nil, nil
}

func (f *fakeSessionStore) DeleteSince(ctx context.Context, ts time.Time) (int, error) {
	return 0, nil
}

func (f *fakeSessionStore) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func (f *fakeSessionStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func newTestLoop() (*Loop, *fakeSource, *fakeSessionStore, *Tracker) {
	tracker, _ := newTestTracker()
	source := &fakeSource{}
	sessions := &fakeSessionStore{}
	loop := NewLoop(source, tracker, sessions, &sync.Mutex{}, time.Hour, zerolog.Nop())
	return loop, source, sessions, tracker
}

func TestTickPersistsCompletedSessions(t *testing.T) {
	loop, source, sessions, tracker := newTestLoop()
	ctx := context.Background()

	source.set(snapshot("p.exe"))
	loop.tick(ctx)
	if len(tracker.ActiveSessions()) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(tracker.ActiveSessions()))
	}
	if sessions.savedCount() != 0 {
		t.Fatalf("nothing should persist while the session is active")
	}

	source.set(snapshot())
	loop.tick(ctx)

	if sessions.savedCount() != 1 {
		t.Fatalf("expected 1 saved session, got %d", sessions.savedCount())
	}
	record := sessions.saved[0]
	if record.EndTime == nil || record.DurationSeconds == nil {
		t.Errorf("persisted record is not completed: %+v", record)
	}
}

func TestTickSkipsWhenPersistLockHeld(t *testing.T) {
	loop, source, _, tracker := newTestLoop()

	source.set(snapshot("p.exe"))

	loop.persistMu.Lock()
	loop.tick(context.Background())
	loop.persistMu.Unlock()

	if len(tracker.ActiveSessions()) != 0 {
		t.Error("contended tick must not reconcile")
	}
}

func TestTickCountsSnapshotFailure(t *testing.T) {
	loop, source, sessions, tracker := newTestLoop()

	source.err = errors.New("proc table unavailable")
	loop.tick(context.Background())

	if len(tracker.ActiveSessions()) != 0 || sessions.savedCount() != 0 {
		t.Error("failed snapshot must not change tracker or storage state")
	}
}

func TestSaveFailureDropsRecord(t *testing.T) {
	loop, source, sessions, _ := newTestLoop()
	ctx := context.Background()

	source.set(snapshot("p.exe"))
	loop.tick(ctx)

	sessions.fail = true
	source.set(snapshot())
	loop.tick(ctx)

	// The drop is final: a later healthy tick does not retry.
	sessions.fail = false
	loop.tick(ctx)

	if sessions.savedCount() != 0 {
		t.Errorf("dropped record must not be retried, got %d saves", sessions.savedCount())
	}
}

func TestShutdownFlushesActiveSessions(t *testing.T) {
	loop, source, sessions, tracker := newTestLoop()
	ctx := context.Background()

	source.set(snapshot("p.exe"))
	loop.tick(ctx)
	tracker.Pause()

	loop.Start()
	loop.Shutdown(ctx)

	if sessions.savedCount() != 1 {
		t.Fatalf("expected shutdown to persist the active session, got %d saves", sessions.savedCount())
	}
	if sessions.saved[0].EndTime == nil {
		t.Error("shutdown must end the session before persisting")
	}
	if len(tracker.ActiveSessions()) != 0 {
		t.Error("no sessions should remain active after shutdown")
	}
}

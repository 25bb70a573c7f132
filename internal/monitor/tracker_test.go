package monitor

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/classify"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/clock"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/procs"
)

func newTestTracker() (*Tracker, *clock.TestClock) {
	classifier := classify.New(zerolog.Nop())
	classifier.AddGame("p.exe", "Game P")
	classifier.AddGame("q.exe", "Game Q")
	classifier.AddGame("r.exe", "Game R")

	clk := &clock.TestClock{CurrentTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	return NewTracker(classifier, clk, zerolog.Nop()), clk
}

func snapshot(names ...string) []procs.ProcessInfo {
	infos := make([]procs.ProcessInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, procs.ProcessInfo{Name: name})
	}
	return infos
}

func activeByProcess(t *testing.T, tr *Tracker, process string) Session {
	t.Helper()
	for _, s := range tr.ActiveSessions() {
		if s.ProcessName == process {
			return s
		}
	}
	t.Fatalf("no active session for %s", process)
	return Session{}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestSessionLifecycle(t *testing.T) {
	tr, clk := newTestTracker()

	tr.Reconcile(snapshot("p.exe"))
	active := tr.ActiveSessions()
	if len(active) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(active))
	}
	if active[0].GameName != "Game P" || active[0].EndTime != nil {
		t.Fatalf("unexpected session state: %+v", active[0])
	}

	clk.Advance(90 * time.Second)
	tr.Reconcile(snapshot())

	if len(tr.ActiveSessions()) != 0 {
		t.Fatal("expected no active sessions after process disappeared")
	}

	completed := tr.DrainCompleted()
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed session, got %d", len(completed))
	}
	s := completed[0]
	if s.EndTime == nil || s.DurationSeconds == nil {
		t.Fatal("completed session must have end time and duration")
	}
	if *s.DurationSeconds != 90 {
		t.Fatalf("expected duration 90s, got %d", *s.DurationSeconds)
	}
	if got := int64(s.EndTime.Sub(s.StartTime).Seconds()); got != *s.DurationSeconds {
		t.Fatalf("duration %d does not match end-start %d", *s.DurationSeconds, got)
	}
	if s.IsConcurrent {
		t.Fatal("lone session must not be concurrent")
	}

	if len(tr.DrainCompleted()) != 0 {
		t.Fatal("drain must clear the completed queue")
	}
}

func TestConcurrentOverlapLinking(t *testing.T) {
	tr, clk := newTestTracker()

	// P appears, then Q appears while P is still active.
	tr.Reconcile(snapshot("p.exe"))
	p := activeByProcess(t, tr, "p.exe")

	clk.Advance(10 * time.Second)
	tr.Reconcile(snapshot("p.exe", "q.exe"))
	q := activeByProcess(t, tr, "q.exe")

	if !q.IsConcurrent || !contains(q.ConcurrentSessionIDs, p.ID) {
		t.Fatalf("new session must link to the existing one: %+v", q)
	}
	pLinked := activeByProcess(t, tr, "p.exe")
	if !pLinked.IsConcurrent || !contains(pLinked.ConcurrentSessionIDs, q.ID) {
		t.Fatalf("existing session must link back to the new one: %+v", pLinked)
	}

	// P disappears while Q remains.
	clk.Advance(20 * time.Second)
	tr.Reconcile(snapshot("q.exe"))

	completed := tr.DrainCompleted()
	if len(completed) != 1 || completed[0].ProcessName != "p.exe" {
		t.Fatalf("expected P to complete, got %+v", completed)
	}
	ended := completed[0]
	if !ended.IsConcurrent || !contains(ended.ConcurrentSessionIDs, q.ID) {
		t.Fatalf("P must end concurrent with Q: %+v", ended)
	}

	qStill := activeByProcess(t, tr, "q.exe")
	if !qStill.IsConcurrent {
		t.Fatal("Q must remain flagged concurrent after P ends")
	}
}

func TestSimultaneousEndingsAreConcurrent(t *testing.T) {
	tr, clk := newTestTracker()

	tr.Reconcile(snapshot("p.exe", "q.exe"))
	p := activeByProcess(t, tr, "p.exe")
	q := activeByProcess(t, tr, "q.exe")

	clk.Advance(time.Minute)
	tr.Reconcile(snapshot())

	completed := tr.DrainCompleted()
	if len(completed) != 2 {
		t.Fatalf("expected 2 completed sessions, got %d", len(completed))
	}
	for _, s := range completed {
		if !s.IsConcurrent {
			t.Fatalf("session %s ending in a shared pass must be concurrent", s.ProcessName)
		}
		other := p.ID
		if s.ID == p.ID {
			other = q.ID
		}
		if !contains(s.ConcurrentSessionIDs, other) {
			t.Fatalf("session %s must reference the other ending session", s.ProcessName)
		}
		if contains(s.ConcurrentSessionIDs, s.ID) {
			t.Fatalf("session %s must not reference itself", s.ProcessName)
		}
	}
}

func TestUnmonitoredProcessesIgnored(t *testing.T) {
	tr, _ := newTestTracker()

	tr.Reconcile(snapshot("notepad.exe", "explorer.exe"))
	if len(tr.ActiveSessions()) != 0 {
		t.Fatal("unmonitored processes must not open sessions")
	}
}

func TestTotalActiveSecondsSharesWallClock(t *testing.T) {
	tr, clk := newTestTracker()

	if tr.TotalActiveSeconds() != 0 {
		t.Fatal("expected zero active time with no sessions")
	}

	tr.Reconcile(snapshot("p.exe"))
	clk.Advance(30 * time.Second)
	tr.Reconcile(snapshot("p.exe", "q.exe"))
	clk.Advance(30 * time.Second)

	// Two concurrent sessions share the window: elapsed since the
	// earliest start is 60s, not 90.
	if got := tr.TotalActiveSeconds(); got != 60 {
		t.Fatalf("expected 60s total active time, got %d", got)
	}
}

func TestPauseSuppressesReconciliation(t *testing.T) {
	tr, clk := newTestTracker()

	tr.Reconcile(snapshot("p.exe"))
	tr.Pause()

	clk.Advance(time.Minute)
	tr.Reconcile(snapshot()) // would end P if not paused

	if len(tr.ActiveSessions()) != 1 {
		t.Fatal("pause must keep active sessions untouched")
	}
	if len(tr.DrainCompleted()) != 0 {
		t.Fatal("pause must not complete sessions")
	}

	tr.Resume()
	tr.Reconcile(snapshot())
	if len(tr.DrainCompleted()) != 1 {
		t.Fatal("resume must re-enable reconciliation")
	}
}

func TestTryReconcileSkipsWhenContended(t *testing.T) {
	tr, _ := newTestTracker()

	tr.mu.Lock()
	if tr.TryReconcile(snapshot("p.exe")) {
		tr.mu.Unlock()
		t.Fatal("TryReconcile must fail while the lock is held elsewhere")
	}
	tr.mu.Unlock()

	if !tr.TryReconcile(snapshot("p.exe")) {
		t.Fatal("TryReconcile must succeed on an uncontended lock")
	}
	if len(tr.ActiveSessions()) != 1 {
		t.Fatal("successful TryReconcile must apply the snapshot")
	}
}

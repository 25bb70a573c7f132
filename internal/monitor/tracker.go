package monitor

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/classify"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/clock"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/metrics"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/procs"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

// Session is a game session owned by the tracker while active.
// Ownership transfers to the persistence layer once the session is
// completed and drained.
type Session struct {
	ID                   string
	GameName             string
	ProcessName          string
	StartTime            time.Time
	EndTime              *time.Time
	DurationSeconds      *int64
	IsSocialSession      bool
	IsConcurrent         bool
	ConcurrentSessionIDs []string
}

// Record converts the session to its storage representation.
func (s *Session) Record() storage.GameSession {
	ids := make([]string, len(s.ConcurrentSessionIDs))
	copy(ids, s.ConcurrentSessionIDs)
	return storage.GameSession{
		ID:                   s.ID,
		GameName:             s.GameName,
		ProcessName:          s.ProcessName,
		StartTime:            s.StartTime,
		EndTime:              s.EndTime,
		DurationSeconds:      s.DurationSeconds,
		IsSocialSession:      s.IsSocialSession,
		IsConcurrent:         s.IsConcurrent,
		ConcurrentSessionIDs: ids,
	}
}

func (s *Session) clone() Session {
	c := *s
	c.ConcurrentSessionIDs = make([]string, len(s.ConcurrentSessionIDs))
	copy(c.ConcurrentSessionIDs, s.ConcurrentSessionIDs)
	return c
}

// Tracker owns the set of currently active sessions and reconciles it
// against process snapshots. At most one active session exists per
// distinct process name.
type Tracker struct {
	classifier *classify.Classifier
	clock      clock.Clock
	logger     zerolog.Logger

	mu        sync.Mutex
	active    map[string]*Session // key: process name
	completed []*Session
	paused    bool
}

// NewTracker creates a session tracker.
func NewTracker(classifier *classify.Classifier, clk clock.Clock, logger zerolog.Logger) *Tracker {
	return &Tracker{
		classifier: classifier,
		clock:      clk,
		logger:     logger.With().Str("component", "session-tracker").Logger(),
		active:     make(map[string]*Session),
	}
}

// TryReconcile attempts a reconciliation without blocking: it returns
// false when the tracker lock is held elsewhere, in which case the
// caller should skip this tick's work.
func (t *Tracker) TryReconcile(snapshot []procs.ProcessInfo) bool {
	if !t.mu.TryLock() {
		return false
	}
	defer t.mu.Unlock()
	t.reconcileLocked(snapshot)
	return true
}

// Reconcile updates the active session set against a fresh process
// snapshot, ending sessions whose process disappeared and opening
// sessions for newly-seen monitored processes.
func (t *Tracker) Reconcile(snapshot []procs.ProcessInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reconcileLocked(snapshot)
}

func (t *Tracker) reconcileLocked(snapshot []procs.ProcessInfo) {
	if t.paused {
		return
	}

	now := t.clock.Now()

	// Monitored process names present in this snapshot.
	running := make(map[string]string) // process name -> display name
	for _, info := range snapshot {
		if _, seen := running[info.Name]; seen {
			continue
		}
		if display, ok := t.classifier.Classify(info.Name, info.ExePath); ok {
			running[info.Name] = display
		}
	}

	t.endDepartedLocked(running, now)
	t.startArrivedLocked(running, now)

	metrics.ActiveSessions.Set(float64(len(t.active)))
}

// endDepartedLocked ends every active session whose process is absent
// from the snapshot. Concurrency links are computed from the state
// before any removal in this pass, so removal order does not affect
// which sessions count as concurrent.
func (t *Tracker) endDepartedLocked(running map[string]string, now time.Time) {
	var ending []*Session
	for name, session := range t.active {
		if _, ok := running[name]; !ok {
			ending = append(ending, session)
		}
	}
	if len(ending) == 0 {
		return
	}

	// ids of all sessions active at the start of this pass
	activeIDs := make([]string, 0, len(t.active))
	for _, session := range t.active {
		activeIDs = append(activeIDs, session.ID)
	}

	for _, session := range ending {
		end := now
		duration := int64(end.Sub(session.StartTime).Seconds())
		session.EndTime = &end
		session.DurationSeconds = &duration

		if len(activeIDs) > 1 {
			session.IsConcurrent = true
			session.ConcurrentSessionIDs = otherIDs(activeIDs, session.ID)
		}

		delete(t.active, session.ProcessName)
		t.completed = append(t.completed, session)

		concurrent := "false"
		if session.IsConcurrent {
			concurrent = "true"
		}
		metrics.SessionsCompleted.WithLabelValues(session.GameName, concurrent).Inc()
		metrics.UsageMinutesConsumed.Add(float64(duration) / 60.0)

		t.logger.Info().
			Str("session_id", session.ID).
			Str("game", session.GameName).
			Int64("duration_seconds", duration).
			Bool("concurrent", session.IsConcurrent).
			Msg("Game session ended")
	}
}

// startArrivedLocked opens sessions for monitored processes with no
// active session. Concurrency linking is point-in-time: a new session
// and every session active at its creation are linked to each other,
// and the links are not re-verified later.
func (t *Tracker) startArrivedLocked(running map[string]string, now time.Time) {
	for name, display := range running {
		if _, tracking := t.active[name]; tracking {
			continue
		}

		session := &Session{
			ID:          ulid.Make().String(),
			GameName:    display,
			ProcessName: name,
			StartTime:   now,
		}

		if len(t.active) > 0 {
			session.IsConcurrent = true
			for _, existing := range t.active {
				session.ConcurrentSessionIDs = append(session.ConcurrentSessionIDs, existing.ID)
				existing.IsConcurrent = true
				existing.ConcurrentSessionIDs = append(existing.ConcurrentSessionIDs, session.ID)
			}
		}

		t.active[name] = session
		metrics.SessionsStarted.WithLabelValues(display).Inc()

		t.logger.Info().
			Str("session_id", session.ID).
			Str("game", display).
			Str("process", name).
			Bool("concurrent", session.IsConcurrent).
			Msg("Game session started")
	}
}

func otherIDs(ids []string, self string) []string {
	others := make([]string, 0, len(ids)-1)
	for _, id := range ids {
		if id != self {
			others = append(others, id)
		}
	}
	return others
}

// ActiveSessions returns a snapshot copy of the currently active
// sessions.
func (t *Tracker) ActiveSessions() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	sessions := make([]Session, 0, len(t.active))
	for _, session := range t.active {
		sessions = append(sessions, session.clone())
	}
	return sessions
}

// DrainCompleted returns and clears the completed-session queue. The
// hand-off is at-most-once: a record lost by the caller is not
// recoverable from the tracker.
func (t *Tracker) DrainCompleted() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	drained := make([]Session, 0, len(t.completed))
	for _, session := range t.completed {
		drained = append(drained, session.clone())
	}
	t.completed = t.completed[:0]
	return drained
}

// TotalActiveSeconds returns the elapsed wall-clock seconds since the
// earliest-starting active session. Concurrent sessions share the
// same window, so this is not a sum of per-session durations.
func (t *Tracker) TotalActiveSeconds() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.active) == 0 {
		return 0
	}

	earliest := time.Time{}
	for _, session := range t.active {
		if earliest.IsZero() || session.StartTime.Before(earliest) {
			earliest = session.StartTime
		}
	}
	return int64(t.clock.Now().Sub(earliest).Seconds())
}

// Pause suppresses reconciliation without clearing active sessions.
func (t *Tracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = true
	t.logger.Info().Msg("Monitoring paused")
}

// Resume re-enables reconciliation.
func (t *Tracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = false
	t.logger.Info().Msg("Monitoring resumed")
}

package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/metrics"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/procs"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

// DefaultTickInterval is the monitor sampling period.
const DefaultTickInterval = 1 * time.Second

// Loop drives the tracker: on each tick it samples the process
// snapshot source, reconciles the tracker and flushes completed
// sessions to storage. Lock acquisition is non-blocking so a periodic
// tick never stalls foreground queries; a contended tick is skipped
// entirely and the next one catches up.
type Loop struct {
	source    procs.Source
	tracker   *Tracker
	sessions  storage.SessionStore
	persistMu *sync.Mutex
	interval  time.Duration
	logger    zerolog.Logger
	stopChan  chan struct{}
	done      chan struct{}
}

// NewLoop creates the monitor loop. persistMu guards the persistence
// handle and must be shared with every foreground reader of the store.
func NewLoop(source procs.Source, tracker *Tracker, sessions storage.SessionStore, persistMu *sync.Mutex, interval time.Duration, logger zerolog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Loop{
		source:    source,
		tracker:   tracker,
		sessions:  sessions,
		persistMu: persistMu,
		interval:  interval,
		logger:    logger.With().Str("component", "monitor-loop").Logger(),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins the loop.
func (l *Loop) Start() {
	go l.run()
	l.logger.Info().Dur("interval", l.interval).Msg("Monitor loop started")
}

// Stop stops the loop and waits for the current tick to finish.
// Completed-but-undrained sessions are acceptable loss on shutdown.
func (l *Loop) Stop() {
	close(l.stopChan)
	<-l.done
	l.logger.Info().Msg("Monitor loop stopped")
}

// Shutdown stops the loop, ends every active session and persists the
// resulting records, so a daemon restart does not lose in-flight play
// time.
func (l *Loop) Shutdown(ctx context.Context) {
	l.Stop()

	l.persistMu.Lock()
	defer l.persistMu.Unlock()

	// A paused tracker still flushes on shutdown.
	l.tracker.Resume()
	l.tracker.Reconcile(nil)
	l.flushCompleted(ctx)
}

func (l *Loop) run() {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.tick(context.Background())
		case <-l.stopChan:
			return
		}
	}
}

// tick performs one reconcile/drain/persist cycle. The snapshot is
// taken before any lock is held; sessions are not safety-critical, so
// a tick skipped under contention only delays reconciliation by one
// interval.
func (l *Loop) tick(ctx context.Context) {
	snapshot, err := l.source.ListProcesses(ctx)
	if err != nil {
		metrics.SnapshotErrors.Inc()
		l.logger.Error().Err(err).Msg("Process snapshot failed")
		return
	}

	if !l.persistMu.TryLock() {
		metrics.TicksSkipped.Inc()
		return
	}
	defer l.persistMu.Unlock()

	if !l.tracker.TryReconcile(snapshot) {
		metrics.TicksSkipped.Inc()
		return
	}

	l.flushCompleted(ctx)
}

// flushCompleted persists drained sessions fire-and-forget: a failed
// write is logged and the record is dropped, never retried or queued.
func (l *Loop) flushCompleted(ctx context.Context) {
	for _, session := range l.tracker.DrainCompleted() {
		if err := l.sessions.Save(ctx, session.Record()); err != nil {
			metrics.PersistErrors.Inc()
			l.logger.Error().Err(err).
				Str("session_id", session.ID).
				Str("game", session.GameName).
				Msg("Failed to save session, record dropped")
		}
	}
}

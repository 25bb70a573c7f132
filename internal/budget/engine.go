package budget

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/clock"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

// Status is the derived budget snapshot. It is computed fresh on
// every request and never persisted.
type Status struct {
	DailyAllowanceMinutes int `json:"daily_allowance_minutes"`
	UsedTodayMinutes      int `json:"used_today_minutes"`
	RolloverMinutes       int `json:"rollover_minutes"`
	EarnedMinutes         int `json:"earned_minutes"`
	TotalAvailableMinutes int `json:"total_available_minutes"`
	RemainingTodayMinutes int `json:"remaining_today_minutes"`
}

// ActiveTimer reports live elapsed time of currently active sessions.
// Satisfied by the session tracker.
type ActiveTimer interface {
	TotalActiveSeconds() int64
}

// Engine combines persisted usage, rollover, earned minutes and the
// configured daily allowance into budget snapshots. It shares the
// persistence lock with the monitor loop per the non-blocking access
// discipline: the engine blocks on the lock, the loop skips contended
// ticks.
type Engine struct {
	store     storage.Store
	persistMu *sync.Mutex
	tracker   ActiveTimer
	clock     clock.Clock
	logger    zerolog.Logger
}

// NewEngine creates a budget engine. persistMu guards the persistence
// handle and must be the same mutex handed to the monitor loop.
// tracker may be nil when no live view is needed.
func NewEngine(store storage.Store, persistMu *sync.Mutex, tracker ActiveTimer, clk clock.Clock, logger zerolog.Logger) *Engine {
	return &Engine{
		store:     store,
		persistMu: persistMu,
		tracker:   tracker,
		clock:     clk,
		logger:    logger.With().Str("component", "budget").Logger(),
	}
}

// Status computes the budget snapshot from persisted data only. It is
// best-effort: a failing read is logged and replaced with an empty
// result, never propagated.
func (e *Engine) Status(ctx context.Context) Status {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	return e.statusLocked(ctx)
}

// LiveStatus is the real-time variant: the tracker's current active
// elapsed time is added on top of persisted usage. Live time is
// additive only; it is never merged into the interval accounting
// until the sessions actually end and are flushed.
func (e *Engine) LiveStatus(ctx context.Context) Status {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	status := e.statusLocked(ctx)
	if e.tracker == nil {
		return status
	}

	liveMinutes := int(e.tracker.TotalActiveSeconds() / 60)
	return compose(status.DailyAllowanceMinutes, status.UsedTodayMinutes+liveMinutes, status.RolloverMinutes, status.EarnedMinutes)
}

func (e *Engine) statusLocked(ctx context.Context) Status {
	now := e.clock.Now()
	midnight := localMidnight(now)

	settings, err := e.store.Settings().Get(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to read settings, using defaults")
		settings = storage.DefaultSettings()
	}

	usedMinutes := 0
	intervals, err := e.store.Sessions().Since(ctx, midnight)
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to read today's sessions, assuming no usage")
	} else {
		usedMinutes = int(CoveredSeconds(intervals) / 60)
	}

	rollover, err := e.store.Rollover().SumActive(ctx, now)
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to read rollover, assuming none")
		rollover = 0
	}

	earned, err := e.store.Activities().EarnedMinutesSince(ctx, midnight)
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to read earned minutes, assuming none")
		earned = 0
	}

	return compose(settings.DailyAllowanceMinutes, usedMinutes, rollover, earned)
}

func compose(allowance, used, rollover, earned int) Status {
	total := allowance + rollover + earned
	remaining := total - used
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		DailyAllowanceMinutes: allowance,
		UsedTodayMinutes:      used,
		RolloverMinutes:       rollover,
		EarnedMinutes:         earned,
		TotalAvailableMinutes: total,
		RemainingTodayMinutes: remaining,
	}
}

// localMidnight returns the start of the day containing t, in t's
// location.
func localMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

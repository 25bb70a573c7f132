package budget

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/clock"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

// CloseoutScheduler closes out each day: at the configured reset time
// it turns the previous day's unused allowance into a rollover entry
// and prunes records past the retention window. Rollover entries are
// consumed and expired by the budget engine.
type CloseoutScheduler struct {
	store         storage.Store
	persistMu     *sync.Mutex
	resetTime     time.Time // only hour and minute are used
	retentionDays int
	clock         clock.Clock
	logger        zerolog.Logger
	stopChan      chan struct{}
}

// NewCloseoutScheduler creates a closeout scheduler. resetTime is the
// daily close-out instant in HH:MM format.
func NewCloseoutScheduler(store storage.Store, persistMu *sync.Mutex, resetTime string, retentionDays int, clk clock.Clock, logger zerolog.Logger) (*CloseoutScheduler, error) {
	parsed, err := time.Parse("15:04", resetTime)
	if err != nil {
		return nil, err
	}

	return &CloseoutScheduler{
		store:         store,
		persistMu:     persistMu,
		resetTime:     parsed,
		retentionDays: retentionDays,
		clock:         clk,
		logger:        logger.With().Str("component", "closeout").Logger(),
		stopChan:      make(chan struct{}),
	}, nil
}

// Start begins the scheduler loop.
func (cs *CloseoutScheduler) Start() {
	go cs.run()
	cs.logger.Info().
		Str("reset_time", cs.resetTime.Format("15:04")).
		Msg("Daily closeout scheduler started")
}

// Stop stops the scheduler.
func (cs *CloseoutScheduler) Stop() {
	close(cs.stopChan)
	cs.logger.Info().Msg("Daily closeout scheduler stopped")
}

func (cs *CloseoutScheduler) run() {
	for {
		nextReset := cs.nextReset()
		waitDuration := time.Until(nextReset)

		cs.logger.Info().
			Time("next_closeout", nextReset).
			Dur("wait_duration", waitDuration).
			Msg("Scheduled next daily closeout")

		select {
		case <-time.After(waitDuration):
			cs.CloseOut(context.Background())
		case <-cs.stopChan:
			return
		}
	}
}

// nextReset calculates the next closeout instant.
func (cs *CloseoutScheduler) nextReset() time.Time {
	now := cs.clock.Now()

	todayReset := time.Date(
		now.Year(), now.Month(), now.Day(),
		cs.resetTime.Hour(), cs.resetTime.Minute(), 0, 0,
		now.Location(),
	)

	if now.After(todayReset) {
		return todayReset.AddDate(0, 0, 1)
	}
	return todayReset
}

// CloseOut records the previous day's unused allowance as a rollover
// entry and prunes records older than the retention window. Failures
// are logged and dropped; the next closeout recomputes from scratch.
func (cs *CloseoutScheduler) CloseOut(ctx context.Context) {
	cs.persistMu.Lock()
	defer cs.persistMu.Unlock()

	now := cs.clock.Now()
	todayStart := localMidnight(now)
	previousStart := todayStart.AddDate(0, 0, -1)

	settings, err := cs.store.Settings().Get(ctx)
	if err != nil {
		cs.logger.Error().Err(err).Msg("Failed to read settings, using defaults for closeout")
		settings = storage.DefaultSettings()
	}

	intervals, err := cs.store.Sessions().Since(ctx, previousStart)
	if err != nil {
		cs.logger.Error().Err(err).Msg("Failed to read previous day's sessions, skipping rollover")
		return
	}

	var previousDay []storage.Interval
	for _, iv := range intervals {
		if iv.Start.Before(todayStart) {
			previousDay = append(previousDay, iv)
		}
	}

	usedMinutes := int(CoveredSeconds(previousDay) / 60)
	unused := settings.DailyAllowanceMinutes - usedMinutes
	if unused < 0 {
		unused = 0
	}

	entry := storage.RolloverEntry{
		Date:          previousStart.Format("2006-01-02"),
		UnusedMinutes: unused,
		ExpiresAt:     now.Add(time.Duration(settings.RolloverDays) * 24 * time.Hour),
	}

	if err := cs.store.Rollover().Upsert(ctx, entry); err != nil {
		cs.logger.Error().Err(err).Str("date", entry.Date).Msg("Failed to save rollover entry")
	} else {
		cs.logger.Info().
			Str("date", entry.Date).
			Int("unused_minutes", unused).
			Time("expires_at", entry.ExpiresAt).
			Msg("Rolled over unused allowance")
	}

	cs.pruneOldRecords(ctx, now)
}

func (cs *CloseoutScheduler) pruneOldRecords(ctx context.Context, now time.Time) {
	cutoff := now.AddDate(0, 0, -cs.retentionDays)

	sessionsDeleted, err := cs.store.Sessions().DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		cs.logger.Error().Err(err).Msg("Failed to prune old sessions")
	}

	activitiesDeleted, err := cs.store.Activities().DeleteBefore(ctx, cutoff)
	if err != nil {
		cs.logger.Error().Err(err).Msg("Failed to prune old learning activities")
	}

	if sessionsDeleted > 0 || activitiesDeleted > 0 {
		cs.logger.Info().
			Int("sessions_deleted", sessionsDeleted).
			Int("activities_deleted", activitiesDeleted).
			Time("cutoff", cutoff).
			Msg("Pruned records past retention window")
	}
}

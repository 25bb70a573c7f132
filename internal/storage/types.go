package storage

import (
	"time"
)

// GameSession is one continuous run of a monitored game process, from
// detection to disappearance. EndTime and DurationSeconds are set
// together when the session ends; a session with a nil EndTime is
// still active and never persisted.
type GameSession struct {
	ID                   string     `json:"id"`
	GameName             string     `json:"game_name"`
	ProcessName          string     `json:"process_name"`
	StartTime            time.Time  `json:"start_time"`
	EndTime              *time.Time `json:"end_time,omitempty"`
	DurationSeconds      *int64     `json:"duration_seconds,omitempty"`
	IsSocialSession      bool       `json:"is_social_session"`
	IsConcurrent         bool       `json:"is_concurrent"`
	ConcurrentSessionIDs []string   `json:"concurrent_session_ids"`
}

// Completed reports whether the session has an end time and duration.
func (s *GameSession) Completed() bool {
	return s.EndTime != nil && s.DurationSeconds != nil
}

// Interval is a closed-open [Start, End) slice of wall-clock time used
// for usage accounting. Concurrent is an informational hint carried
// from the session record; the accounting sweep is correct without it.
type Interval struct {
	Start      time.Time
	End        time.Time
	Concurrent bool
}

// LearningActivity is a read-only ledger entry crediting gaming
// minutes for a logged non-gaming activity.
type LearningActivity struct {
	ID                  string    `json:"id"`
	ActivityType        string    `json:"activity_type"`
	Description         string    `json:"description"`
	DurationMinutes     int       `json:"duration_minutes"`
	EarnedGamingMinutes int       `json:"earned_gaming_minutes"`
	Timestamp           time.Time `json:"timestamp"`
}

// RolloverEntry carries one day's unused allowance forward until it
// expires.
type RolloverEntry struct {
	Date          string    `json:"date"` // YYYY-MM-DD
	UnusedMinutes int       `json:"unused_minutes"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Default settings applied when a stored value is absent or malformed.
const (
	DefaultDailyAllowanceMinutes   = 120
	DefaultRolloverDays            = 3
	DefaultNotificationsEnabled    = true
	DefaultWarningThresholdMinutes = 15
)

// Settings keys as stored in the key/value settings table.
const (
	SettingDailyAllowanceMinutes   = "daily_allowance_minutes"
	SettingRolloverDays            = "rollover_days"
	SettingNotificationsEnabled    = "notifications_enabled"
	SettingWarningThresholdMinutes = "warning_threshold_minutes"
)

// Settings is the budget configuration read from the settings table.
type Settings struct {
	DailyAllowanceMinutes   int  `json:"daily_allowance_minutes"`
	RolloverDays            int  `json:"rollover_days"`
	NotificationsEnabled    bool `json:"notifications_enabled"`
	WarningThresholdMinutes int  `json:"warning_threshold_minutes"`
}

// DefaultSettings returns the documented fallback settings.
func DefaultSettings() Settings {
	return Settings{
		DailyAllowanceMinutes:   DefaultDailyAllowanceMinutes,
		RolloverDays:            DefaultRolloverDays,
		NotificationsEnabled:    DefaultNotificationsEnabled,
		WarningThresholdMinutes: DefaultWarningThresholdMinutes,
	}
}

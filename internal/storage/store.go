package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface. Backends are
// record-oriented; the exact storage technology is an implementation
// choice (sqlite and redis are provided).
type Store interface {
	Close() error
	Sessions() SessionStore
	Activities() ActivityStore
	Rollover() RolloverStore
	Settings() SettingsStore
}

// SessionStore manages completed game session records. Sessions are
// append-only: ids are caller-assigned and a saved record is never
// mutated.
type SessionStore interface {
	Save(ctx context.Context, session GameSession) error
	Recent(ctx context.Context, limit int) ([]GameSession, error)
	// Since returns the (start, end) intervals of completed sessions
	// whose start time falls on or after ts, for usage accounting.
	Since(ctx context.Context, ts time.Time) ([]Interval, error)
	DeleteSince(ctx context.Context, ts time.Time) (int, error)
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// ActivityStore manages the learning activity ledger.
type ActivityStore interface {
	Add(ctx context.Context, activity LearningActivity) error
	Recent(ctx context.Context, limit int) ([]LearningActivity, error)
	EarnedMinutesSince(ctx context.Context, ts time.Time) (int, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// RolloverStore manages carried-forward allowance entries.
type RolloverStore interface {
	Upsert(ctx context.Context, entry RolloverEntry) error
	// SumActive sums the unused minutes of unexpired entries and prunes
	// entries whose expiry is strictly before now as a side effect.
	SumActive(ctx context.Context, now time.Time) (int, error)
}

// SettingsStore manages key/value settings. Get never fails on
// absent or malformed values; it falls back to the documented
// defaults per key.
type SettingsStore interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, key, value string) error
}

// Package sqlite implements the storage interfaces on a local SQLite
// database file.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

// Store implements the storage.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary creates) a SQLite-backed store.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := storage.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// modernc sqlite handles a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			game_name TEXT NOT NULL,
			process_name TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT,
			duration_seconds INTEGER,
			is_social_session BOOLEAN DEFAULT FALSE,
			is_concurrent BOOLEAN DEFAULT FALSE,
			concurrent_session_ids TEXT DEFAULT '[]',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions(start_time)`,
		`CREATE TABLE IF NOT EXISTS learning_activities (
			id TEXT PRIMARY KEY,
			activity_type TEXT NOT NULL,
			description TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			earned_gaming_minutes INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_timestamp ON learning_activities(timestamp)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS budget_rollover (
			date TEXT PRIMARY KEY,
			unused_minutes INTEGER NOT NULL,
			expires_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Sessions returns the session store.
func (s *Store) Sessions() storage.SessionStore { return &sessionStore{db: s.db} }

// Activities returns the learning activity store.
func (s *Store) Activities() storage.ActivityStore { return &activityStore{db: s.db} }

// Rollover returns the rollover store.
func (s *Store) Rollover() storage.RolloverStore { return &rolloverStore{db: s.db} }

// Settings returns the settings store.
func (s *Store) Settings() storage.SettingsStore { return &settingsStore{db: s.db} }

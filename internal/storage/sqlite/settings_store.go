package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

type settingsStore struct {
	db *sql.DB
}

// Get reads all settings rows and applies the documented default for
// any key that is absent or does not parse. Malformed values are
// surfaced as the default, never as an error.
func (s *settingsStore) Get(ctx context.Context) (storage.Settings, error) {
	settings := storage.DefaultSettings()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return settings, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, fmt.Errorf("scan setting: %w", err)
		}

		switch key {
		case storage.SettingDailyAllowanceMinutes:
			settings.DailyAllowanceMinutes = parseIntOr(value, storage.DefaultDailyAllowanceMinutes)
		case storage.SettingRolloverDays:
			settings.RolloverDays = parseIntOr(value, storage.DefaultRolloverDays)
		case storage.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		case storage.SettingWarningThresholdMinutes:
			settings.WarningThresholdMinutes = parseIntOr(value, storage.DefaultWarningThresholdMinutes)
		}
	}

	return settings, rows.Err()
}

func (s *settingsStore) Update(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)`, key, value)
	if err != nil {
		return fmt.Errorf("update setting %s: %w", key, err)
	}
	return nil
}

func parseIntOr(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

package redis

import (
	"context"
	"strconv"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	"github.com/redis/go-redis/v9"
)

type settingsStore struct {
	client *redis.Client
}

// Get reads the settings hash and applies the documented default for
// any field that is absent or does not parse. Malformed values are
// surfaced as the default, never as an error.
func (s *settingsStore) Get(ctx context.Context) (storage.Settings, error) {
	settings := storage.DefaultSettings()

	data, err := s.client.HGetAll(ctx, settingsKey).Result()
	if err != nil {
		return settings, err
	}

	for key, value := range data {
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

	return settings, nil
}

func (s *settingsStore) Update(ctx context.Context, key, value string) error {
	return s.client.HSet(ctx, settingsKey, key, value).Err()
}

func parseIntOr(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

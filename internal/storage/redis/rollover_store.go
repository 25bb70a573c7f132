package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	"github.com/redis/go-redis/v9"
)

type rolloverStore struct {
	client *redis.Client
}

// Upsert writes the rollover entry for its date, replacing any
// previous entry for the same day.
func (s *rolloverStore) Upsert(ctx context.Context, entry storage.RolloverEntry) error {
	fields := map[string]interface{}{
		"date":           entry.Date,
		"unused_minutes": entry.UnusedMinutes,
		"expires_at":     entry.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, rolloverKeyPrefix+entry.Date, fields)
	pipe.SAdd(ctx, rolloverDatesIndex, entry.Date)
	_, err := pipe.Exec(ctx)
	return err
}

// SumActive sums unexpired rollover minutes, deleting expired entries
// as it goes.
func (s *rolloverStore) SumActive(ctx context.Context, now time.Time) (int, error) {
	dates, err := s.client.SMembers(ctx, rolloverDatesIndex).Result()
	if err != nil {
		return 0, err
	}

	total := 0
	var expired []string
	for _, date := range dates {
		data, err := s.client.HGetAll(ctx, rolloverKeyPrefix+date).Result()
		if err != nil {
			return 0, err
		}
		if len(data) == 0 {
			expired = append(expired, date)
			continue
		}

		expiresAt, err := time.Parse(time.RFC3339Nano, data["expires_at"])
		if err != nil {
			return 0, fmt.Errorf("failed to parse expires_at: %w", err)
		}
		if expiresAt.Before(now) {
			expired = append(expired, date)
			continue
		}

		minutes, err := strconv.Atoi(data["unused_minutes"])
		if err != nil {
			return 0, fmt.Errorf("failed to parse unused_minutes: %w", err)
		}
		total += minutes
	}

	if len(expired) > 0 {
		pipe := s.client.Pipeline()
		for _, date := range expired {
			pipe.Del(ctx, rolloverKeyPrefix+date)
			pipe.SRem(ctx, rolloverDatesIndex, date)
		}
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			return 0, err
		}
	}

	return total, nil
}

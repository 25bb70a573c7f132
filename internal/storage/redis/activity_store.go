package redis

import (
	"context"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	"github.com/redis/go-redis/v9"
)

type activityStore struct {
	client *redis.Client
}

// Add appends a learning activity to the ledger.
func (s *activityStore) Add(ctx context.Context, activity storage.LearningActivity) error {
	fields := map[string]interface{}{
		"id":                    activity.ID,
		"activity_type":         activity.ActivityType,
		"description":           activity.Description,
		"duration_minutes":      activity.DurationMinutes,
		"earned_gaming_minutes": activity.EarnedGamingMinutes,
		"timestamp":             activity.Timestamp.UTC().Format(time.RFC3339Nano),
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, activityKeyPrefix+activity.ID, fields)
	pipe.ZAdd(ctx, activityTimeIndex, redis.Z{
		Score:  timeScore(activity.Timestamp),
		Member: activity.ID,
	})
	_, err := pipe.Exec(ctx)
	return err
}

// Recent returns up to limit activities, newest first.
func (s *activityStore) Recent(ctx context.Context, limit int) ([]storage.LearningActivity, error) {
	if limit <= 0 {
		return []storage.LearningActivity{}, nil
	}

	ids, err := s.client.ZRevRange(ctx, activityTimeIndex, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	return s.fetchActivities(ctx, ids)
}

// EarnedMinutesSince sums earned gaming minutes over activities logged
// at or after ts.
func (s *activityStore) EarnedMinutesSince(ctx context.Context, ts time.Time) (int, error) {
	ids, err := s.client.ZRangeByScore(ctx, activityTimeIndex, &redis.ZRangeBy{
		Min: scoreString(ts),
		Max: "+inf",
	}).Result()
	if err != nil {
		return 0, err
	}

	activities, err := s.fetchActivities(ctx, ids)
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range activities {
		total += activities[i].EarnedGamingMinutes
	}
	return total, nil
}

// DeleteBefore removes activities logged before cutoff.
func (s *activityStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := s.client.ZRangeByScore(ctx, activityTimeIndex, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + scoreString(cutoff),
	}).Result()
	if err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, activityKeyPrefix+id)
		pipe.ZRem(ctx, activityTimeIndex, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *activityStore) fetchActivities(ctx context.Context, ids []string) ([]storage.LearningActivity, error) {
	if len(ids) == 0 {
		return []storage.LearningActivity{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, activityKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	activities := make([]storage.LearningActivity, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		activity, err := parseLearningActivity(data)
		if err != nil {
			continue
		}
		activities = append(activities, *activity)
	}
	return activities, nil
}

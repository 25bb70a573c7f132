package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	"github.com/redis/go-redis/v9"
)

type sessionStore struct {
	client *redis.Client
}

// Save persists a completed game session and indexes it by start time.
func (s *sessionStore) Save(ctx context.Context, session storage.GameSession) error {
	fields := map[string]interface{}{
		"id":                session.ID,
		"game_name":         session.GameName,
		"process_name":      session.ProcessName,
		"start_time":        session.StartTime.UTC().Format(time.RFC3339Nano),
		"is_social_session": boolField(session.IsSocialSession),
		"is_concurrent":     boolField(session.IsConcurrent),
	}

	if session.EndTime != nil {
		fields["end_time"] = session.EndTime.UTC().Format(time.RFC3339Nano)
	}
	if session.DurationSeconds != nil {
		fields["duration_seconds"] = *session.DurationSeconds
	}
	if len(session.ConcurrentSessionIDs) > 0 {
		ids, err := json.Marshal(session.ConcurrentSessionIDs)
		if err != nil {
			return err
		}
		fields["concurrent_session_ids"] = string(ids)
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, sessionKeyPrefix+session.ID, fields)
	pipe.ZAdd(ctx, sessionStartIndex, redis.Z{
		Score:  timeScore(session.StartTime),
		Member: session.ID,
	})
	_, err := pipe.Exec(ctx)
	return err
}

// Recent returns up to limit sessions, newest first by start time.
func (s *sessionStore) Recent(ctx context.Context, limit int) ([]storage.GameSession, error) {
	if limit <= 0 {
		return []storage.GameSession{}, nil
	}

	ids, err := s.client.ZRevRange(ctx, sessionStartIndex, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	return s.fetchSessions(ctx, ids)
}

// Since returns the intervals of completed sessions started at or
// after ts.
func (s *sessionStore) Since(ctx context.Context, ts time.Time) ([]storage.Interval, error) {
	ids, err := s.client.ZRangeByScore(ctx, sessionStartIndex, &redis.ZRangeBy{
		Min: scoreString(ts),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	sessions, err := s.fetchSessions(ctx, ids)
	if err != nil {
		return nil, err
	}

	intervals := make([]storage.Interval, 0, len(sessions))
	for i := range sessions {
		if !sessions[i].Completed() {
			continue
		}
		intervals = append(intervals, storage.Interval{
			Start:      sessions[i].StartTime,
			End:        *sessions[i].EndTime,
			Concurrent: sessions[i].IsConcurrent,
		})
	}
	return intervals, nil
}

// DeleteSince removes all sessions started at or after ts.
func (s *sessionStore) DeleteSince(ctx context.Context, ts time.Time) (int, error) {
	ids, err := s.client.ZRangeByScore(ctx, sessionStartIndex, &redis.ZRangeBy{
		Min: scoreString(ts),
		Max: "+inf",
	}).Result()
	if err != nil {
		return 0, err
	}

	return s.deleteByIDs(ctx, ids, nil)
}

// DeleteCompletedBefore removes completed sessions started before
// cutoff. Open sessions are never deleted.
func (s *sessionStore) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := s.client.ZRangeByScore(ctx, sessionStartIndex, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + scoreString(cutoff),
	}).Result()
	if err != nil {
		return 0, err
	}

	return s.deleteByIDs(ctx, ids, func(sess *storage.GameSession) bool {
		return sess.Completed()
	})
}

func (s *sessionStore) fetchSessions(ctx context.Context, ids []string) ([]storage.GameSession, error) {
	if len(ids) == 0 {
		return []storage.GameSession{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, sessionKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	sessions := make([]storage.GameSession, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		session, err := parseGameSession(data)
		if err != nil {
			continue
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

// deleteByIDs removes the given sessions and their index entries,
// filtered by match when non-nil.
func (s *sessionStore) deleteByIDs(ctx context.Context, ids []string, match func(*storage.GameSession) bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	victims := ids
	if match != nil {
		sessions, err := s.fetchSessions(ctx, ids)
		if err != nil {
			return 0, err
		}
		victims = victims[:0]
		for i := range sessions {
			if match(&sessions[i]) {
				victims = append(victims, sessions[i].ID)
			}
		}
	}

	if len(victims) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, id := range victims {
		pipe.Del(ctx, sessionKeyPrefix+id)
		pipe.ZRem(ctx, sessionStartIndex, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(victims), nil
}

package redis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

// timeScore converts a timestamp to a sorted-set score. Millisecond
// resolution keeps range queries correct for sub-second start times.
func timeScore(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func scoreString(t time.Time) string {
	return strconv.FormatFloat(timeScore(t), 'f', -1, 64)
}

// parseGameSession converts a Redis hash to GameSession
func parseGameSession(data map[string]string) (*storage.GameSession, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	startTime, err := time.Parse(time.RFC3339Nano, data["start_time"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse start_time: %w", err)
	}

	session := &storage.GameSession{
		ID:          data["id"],
		GameName:    data["game_name"],
		ProcessName: data["process_name"],
		StartTime:   startTime,
	}

	if raw, ok := data["end_time"]; ok && raw != "" {
		endTime, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse end_time: %w", err)
		}
		session.EndTime = &endTime
	}

	if raw, ok := data["duration_seconds"]; ok && raw != "" {
		duration, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse duration_seconds: %w", err)
		}
		session.DurationSeconds = &duration
	}

	session.IsSocialSession = data["is_social_session"] == "1"
	session.IsConcurrent = data["is_concurrent"] == "1"

	if raw, ok := data["concurrent_session_ids"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &session.ConcurrentSessionIDs); err != nil {
			return nil, fmt.Errorf("failed to parse concurrent_session_ids: %w", err)
		}
	}

	return session, nil
}

// parseLearningActivity converts a Redis hash to LearningActivity
func parseLearningActivity(data map[string]string) (*storage.LearningActivity, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	timestamp, err := time.Parse(time.RFC3339Nano, data["timestamp"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	duration, err := strconv.Atoi(data["duration_minutes"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration_minutes: %w", err)
	}

	earned, err := strconv.Atoi(data["earned_gaming_minutes"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse earned_gaming_minutes: %w", err)
	}

	return &storage.LearningActivity{
		ID:                  data["id"],
		ActivityType:        data["activity_type"],
		Description:         data["description"],
		DurationMinutes:     duration,
		EarnedGamingMinutes: earned,
		Timestamp:           timestamp,
	}, nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

type activityStore struct {
	db *sql.DB
}

func (s *activityStore) Add(ctx context.Context, activity storage.LearningActivity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_activities (id, activity_type, description,
			duration_minutes, earned_gaming_minutes, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		activity.ID,
		activity.ActivityType,
		activity.Description,
		activity.DurationMinutes,
		activity.EarnedGamingMinutes,
		activity.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("add learning activity: %w", err)
	}
	return nil
}

func (s *activityStore) Recent(ctx context.Context, limit int) ([]storage.LearningActivity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activity_type, description, duration_minutes, earned_gaming_minutes, timestamp
		FROM learning_activities
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent activities: %w", err)
	}
	defer rows.Close()

	var activities []storage.LearningActivity
	for rows.Next() {
		var activity storage.LearningActivity
		var timestamp string
		if err := rows.Scan(&activity.ID, &activity.ActivityType, &activity.Description,
			&activity.DurationMinutes, &activity.EarnedGamingMinutes, &timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse activity timestamp: %w", err)
		}
		activity.Timestamp = ts
		activities = append(activities, activity)
	}

	return activities, rows.Err()
}

func (s *activityStore) EarnedMinutesSince(ctx context.Context, ts time.Time) (int, error) {
	var earned int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(earned_gaming_minutes), 0)
		FROM learning_activities
		WHERE timestamp >= ?`,
		ts.UTC().Format(time.RFC3339)).Scan(&earned)
	if err != nil {
		return 0, fmt.Errorf("sum earned minutes: %w", err)
	}
	return earned, nil
}

func (s *activityStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM learning_activities WHERE timestamp < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("delete old activities: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return int(deleted), nil
}

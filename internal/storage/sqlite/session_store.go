package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

type sessionStore struct {
	db *sql.DB
}

func (s *sessionStore) Save(ctx context.Context, session storage.GameSession) error {
	var endTime any
	if session.EndTime != nil {
		endTime = session.EndTime.UTC().Format(time.RFC3339)
	}
	var duration any
	if session.DurationSeconds != nil {
		duration = *session.DurationSeconds
	}

	concurrentIDs, err := json.Marshal(session.ConcurrentSessionIDs)
	if err != nil {
		concurrentIDs = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, game_name, process_name, start_time, end_time,
			duration_seconds, is_social_session, is_concurrent, concurrent_session_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.GameName,
		session.ProcessName,
		session.StartTime.UTC().Format(time.RFC3339),
		endTime,
		duration,
		session.IsSocialSession,
		session.IsConcurrent,
		string(concurrentIDs),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *sessionStore) Recent(ctx context.Context, limit int) ([]storage.GameSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_name, process_name, start_time, end_time,
			duration_seconds, is_social_session, is_concurrent, concurrent_session_ids
		FROM sessions
		ORDER BY start_time DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []storage.GameSession
	for rows.Next() {
		var (
			session       storage.GameSession
			startTime     string
			endTime       sql.NullString
			duration      sql.NullInt64
			concurrentIDs string
		)
		if err := rows.Scan(&session.ID, &session.GameName, &session.ProcessName,
			&startTime, &endTime, &duration,
			&session.IsSocialSession, &session.IsConcurrent, &concurrentIDs); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}

		start, err := time.Parse(time.RFC3339, startTime)
		if err != nil {
			return nil, fmt.Errorf("parse session start time: %w", err)
		}
		session.StartTime = start

		if endTime.Valid {
			if end, err := time.Parse(time.RFC3339, endTime.String); err == nil {
				session.EndTime = &end
			}
		}
		if duration.Valid {
			d := duration.Int64
			session.DurationSeconds = &d
		}
		if err := json.Unmarshal([]byte(concurrentIDs), &session.ConcurrentSessionIDs); err != nil {
			session.ConcurrentSessionIDs = nil
		}

		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func (s *sessionStore) Since(ctx context.Context, ts time.Time) ([]storage.Interval, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT start_time, end_time, is_concurrent
		FROM sessions
		WHERE start_time >= ? AND end_time IS NOT NULL AND duration_seconds IS NOT NULL
		ORDER BY start_time`,
		ts.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query sessions since: %w", err)
	}
	defer rows.Close()

	var intervals []storage.Interval
	for rows.Next() {
		var startTime, endTime string
		var concurrent bool
		if err := rows.Scan(&startTime, &endTime, &concurrent); err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}

		start, err := time.Parse(time.RFC3339, startTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, endTime)
		if err != nil {
			continue
		}

		intervals = append(intervals, storage.Interval{Start: start, End: end, Concurrent: concurrent})
	}

	return intervals, rows.Err()
}

func (s *sessionStore) DeleteSince(ctx context.Context, ts time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE start_time >= ?`,
		ts.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("delete sessions since: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return int(deleted), nil
}

func (s *sessionStore) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE end_time IS NOT NULL AND start_time < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("delete completed sessions: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return int(deleted), nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

type rolloverStore struct {
	db *sql.DB
}

func (s *rolloverStore) Upsert(ctx context.Context, entry storage.RolloverEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO budget_rollover (date, unused_minutes, expires_at)
		VALUES (?, ?, ?)`,
		entry.Date,
		entry.UnusedMinutes,
		entry.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert rollover: %w", err)
	}
	return nil
}

func (s *rolloverStore) SumActive(ctx context.Context, now time.Time) (int, error) {
	nowStr := now.UTC().Format(time.RFC3339)

	// Prune expired entries first; rollover past its expiry is gone for
	// good.
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM budget_rollover WHERE expires_at < ?`, nowStr); err != nil {
		return 0, fmt.Errorf("prune expired rollover: %w", err)
	}

	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(unused_minutes), 0)
		FROM budget_rollover
		WHERE expires_at >= ?`, nowStr).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum rollover: %w", err)
	}
	return int(total.Int64), nil
}

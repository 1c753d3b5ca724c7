// Package dedup provides the PostgreSQL seen-delivery store.
package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gatherly/pulse/internal/tracing"
)

// PostgresStore implements Store using PostgreSQL. Uniqueness is enforced by
// the primary key; ON CONFLICT DO NOTHING makes MarkSeen race-safe across
// concurrent consumers.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// MarkSeen records a delivery key, reporting whether it was new.
func (s *PostgresStore) MarkSeen(ctx context.Context, key string) (_ bool, err error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, "seen_deliveries", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	const query = `
		INSERT INTO seen_deliveries (key, seen_at)
		VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query, key, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to record delivery key: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows > 0, nil
}

// Forget removes a previously recorded delivery key.
func (s *PostgresStore) Forget(ctx context.Context, key string) (err error) {
	if key == "" {
		return ErrEmptyKey
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, "seen_deliveries", tracing.DBOperationDelete)
	defer func() { endSpan(err) }()

	const query = `DELETE FROM seen_deliveries WHERE key = $1`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to forget delivery key: %w", err)
	}
	return nil
}

// DeleteOlderThan removes keys first seen more than age ago.
func (s *PostgresStore) DeleteOlderThan(ctx context.Context, age time.Duration) (_ int64, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "seen_deliveries", tracing.DBOperationDelete)
	defer func() { endSpan(err) }()

	const query = `DELETE FROM seen_deliveries WHERE seen_at < $1`

	res, err := s.db.ExecContext(ctx, query, time.Now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old delivery keys: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return deleted, nil
}

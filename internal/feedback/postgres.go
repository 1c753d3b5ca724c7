// Package feedback provides the PostgreSQL repository implementation for feedback records.
package feedback

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create stores a new feedback record.
func (r *PostgresRepository) Create(ctx context.Context, rec *Record) error {
	const query = `
		INSERT INTO event_feedback (id, event_id, rating, comment, is_anonymous, customer_uid, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.EventID, rec.Rating, rec.Comment, rec.Anonymous, rec.CustomerUID, rec.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to insert feedback record: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRecordExists
	}
	return nil
}

// ListByEvent retrieves all feedback records for an event.
func (r *PostgresRepository) ListByEvent(ctx context.Context, eventID string) ([]*Record, error) {
	const query = `
		SELECT id, event_id, rating, comment, is_anonymous, customer_uid, submitted_at
		FROM event_feedback
		WHERE event_id = $1
		ORDER BY submitted_at`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Rating, &rec.Comment,
			&rec.Anonymous, &rec.CustomerUID, &rec.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback records: %w", err)
	}
	return records, nil
}

// Package attendance provides the PostgreSQL repository implementation for check-in records.
package attendance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/gatherly/pulse/internal/tracing"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create stores a new attendance record.
func (r *PostgresRepository) Create(ctx context.Context, rec *Record) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "attendance", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	const query = `
		INSERT INTO attendance (id, event_id, customer_uid, attended_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, rec.ID, rec.EventID, rec.CustomerUID, rec.AttendedAt)
	if err != nil {
		return fmt.Errorf("failed to insert attendance record: %w", err)
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

// ListByEvent retrieves all attendance records for an event ordered by check-in time.
func (r *PostgresRepository) ListByEvent(ctx context.Context, eventID string) (_ []*Record, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "attendance", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	const query = `
		SELECT id, event_id, customer_uid, attended_at
		FROM attendance
		WHERE event_id = $1
		ORDER BY attended_at`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.CustomerUID, &rec.AttendedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}
	return records, nil
}

// CountByEventAndCustomer counts records for an event with the given customer UID.
func (r *PostgresRepository) CountByEventAndCustomer(ctx context.Context, eventID, customerUID string) (_ int, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "attendance", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	const query = `
		SELECT COUNT(*) FROM attendance
		WHERE event_id = $1 AND customer_uid = $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID, customerUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count attendance records: %w", err)
	}
	return count, nil
}

// DistinctEventsByCustomer returns the distinct event IDs among the candidate set
// that the customer has attendance records for.
func (r *PostgresRepository) DistinctEventsByCustomer(ctx context.Context, customerUID string, eventIDs []string) (_ []string, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "attendance", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	if len(eventIDs) == 0 {
		return nil, nil
	}

	const query = `
		SELECT DISTINCT event_id FROM attendance
		WHERE customer_uid = $1 AND event_id = ANY($2)`

	rows, err := r.db.QueryContext(ctx, query, customerUID, pq.Array(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query attended events: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan event id: %w", err)
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attended events: %w", err)
	}
	return result, nil
}

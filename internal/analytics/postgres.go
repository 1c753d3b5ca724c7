// Package analytics provides the PostgreSQL repository implementation for the
// per-event aggregate, with transactional read-modify-write semantics.
package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/gatherly/pulse/internal/tracing"
)

// maxMutateAttempts bounds retries on transaction conflicts.
const maxMutateAttempts = 3

// PostgreSQL error codes treated as retryable conflicts.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// PostgresRepository implements Repository using PostgreSQL. The analytics
// document is stored as one row per event; map and nested fields live in
// JSONB columns. Mutate takes a row lock (SELECT ... FOR UPDATE) so
// concurrent writers for the same event serialize, and retries on
// serialization failures. The first mutation for an event claims the row
// via an insert before locking, so two first writers also serialize.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

// Get retrieves the analytics document for an event.
func (r *PostgresRepository) Get(ctx context.Context, eventID string) (_ *EventAnalytics, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "event_analytics", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	const query = `
		SELECT event_id, total_attendees, hourly_sign_ins, repeat_attendees,
		       dropout_rate, feedback, last_updated
		FROM event_analytics WHERE event_id = $1`

	return scanAnalytics(r.db.QueryRowContext(ctx, query, eventID))
}

// Mutate applies fn to the event's analytics document inside a transaction.
func (r *PostgresRepository) Mutate(ctx context.Context, eventID string, fn func(*EventAnalytics) error) (_ *EventAnalytics, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "event_analytics", tracing.DBOperationUpdate)
	defer func() { endSpan(err) }()

	var lastErr error
	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		doc, err := r.mutateOnce(ctx, eventID, fn)
		if err == nil {
			return doc, nil
		}
		if !isRetryableConflict(err) {
			return nil, err
		}
		lastErr = err
		r.logger.Warn("analytics mutation conflict, retrying",
			slog.String("event_id", eventID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
	}
	return nil, fmt.Errorf("analytics mutation failed after %d attempts: %w", maxMutateAttempts, lastErr)
}

func (r *PostgresRepository) mutateOnce(ctx context.Context, eventID string, fn func(*EventAnalytics) error) (*EventAnalytics, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// No-op after a successful commit.
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.logger.Warn("failed to rollback analytics transaction",
				slog.String("error", err.Error()))
		}
	}()

	doc, err := scanAnalytics(tx.QueryRowContext(ctx, selectForUpdateQuery, eventID))
	if errors.Is(err, ErrAnalyticsNotFound) {
		doc, err = claimInitialRow(ctx, tx, eventID)
	}
	if err != nil {
		return nil, err
	}

	if err := fn(doc); err != nil {
		return nil, err
	}
	doc.LastUpdated = time.Now()

	hourly, err := json.Marshal(doc.HourlySignIns)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hourly sign-ins: %w", err)
	}
	var feedbackJSON interface{}
	if doc.Feedback != nil {
		b, err := json.Marshal(doc.Feedback)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal feedback analytics: %w", err)
		}
		feedbackJSON = b
	}

	const upsertQuery = `
		INSERT INTO event_analytics
			(event_id, total_attendees, hourly_sign_ins, repeat_attendees, dropout_rate, feedback, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO UPDATE SET
			total_attendees  = EXCLUDED.total_attendees,
			hourly_sign_ins  = EXCLUDED.hourly_sign_ins,
			repeat_attendees = EXCLUDED.repeat_attendees,
			dropout_rate     = EXCLUDED.dropout_rate,
			feedback         = EXCLUDED.feedback,
			last_updated     = EXCLUDED.last_updated`

	if _, err := tx.ExecContext(ctx, upsertQuery,
		doc.EventID, doc.TotalAttendees, hourly, doc.RepeatAttendees,
		doc.DropoutRate, feedbackJSON, doc.LastUpdated); err != nil {
		return nil, fmt.Errorf("failed to upsert analytics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit analytics transaction: %w", err)
	}
	return doc, nil
}

const selectForUpdateQuery = `
	SELECT event_id, total_attendees, hourly_sign_ins, repeat_attendees,
	       dropout_rate, feedback, last_updated
	FROM event_analytics WHERE event_id = $1
	FOR UPDATE`

// claimInitialRow handles the event's first mutation. With no row yet there is
// nothing for SELECT ... FOR UPDATE to lock, so two first writers would both
// compute from the default document and the later commit would overwrite the
// earlier one. Inserting a default row with ON CONFLICT DO NOTHING makes the
// loser block until the winner commits; the re-read then locks whichever row
// won and the mutation applies on top of it.
func claimInitialRow(ctx context.Context, tx *sql.Tx, eventID string) (*EventAnalytics, error) {
	doc := New(eventID)
	hourly, err := json.Marshal(doc.HourlySignIns)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hourly sign-ins: %w", err)
	}

	const insertQuery = `
		INSERT INTO event_analytics
			(event_id, total_attendees, hourly_sign_ins, repeat_attendees, dropout_rate, feedback, last_updated)
		VALUES ($1, $2, $3, $4, $5, NULL, $6)
		ON CONFLICT (event_id) DO NOTHING`

	if _, err := tx.ExecContext(ctx, insertQuery,
		doc.EventID, doc.TotalAttendees, hourly, doc.RepeatAttendees,
		doc.DropoutRate, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to insert initial analytics row: %w", err)
	}

	return scanAnalytics(tx.QueryRowContext(ctx, selectForUpdateQuery, eventID))
}

// ListUpdatedSince returns analytics documents updated at or after since.
func (r *PostgresRepository) ListUpdatedSince(ctx context.Context, since time.Time) (_ []*EventAnalytics, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "event_analytics", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	const query = `
		SELECT event_id, total_attendees, hourly_sign_ins, repeat_attendees,
		       dropout_rate, feedback, last_updated
		FROM event_analytics
		WHERE last_updated >= $1
		ORDER BY last_updated`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query updated analytics: %w", err)
	}
	defer rows.Close()

	var result []*EventAnalytics
	for rows.Next() {
		doc, err := scanAnalytics(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analytics rows: %w", err)
	}
	return result, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalytics(row rowScanner) (*EventAnalytics, error) {
	doc := &EventAnalytics{}
	var hourly []byte
	var feedbackJSON []byte
	err := row.Scan(&doc.EventID, &doc.TotalAttendees, &hourly, &doc.RepeatAttendees,
		&doc.DropoutRate, &feedbackJSON, &doc.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAnalyticsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan analytics row: %w", err)
	}
	if err := json.Unmarshal(hourly, &doc.HourlySignIns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hourly sign-ins: %w", err)
	}
	if doc.HourlySignIns == nil {
		doc.HourlySignIns = make(map[string]int)
	}
	if len(feedbackJSON) > 0 {
		doc.Feedback = &FeedbackAnalytics{}
		if err := json.Unmarshal(feedbackJSON, doc.Feedback); err != nil {
			return nil, fmt.Errorf("failed to unmarshal feedback analytics: %w", err)
		}
	}
	return doc, nil
}

// isRetryableConflict reports whether err is a transient transaction conflict.
func isRetryableConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgSerializationFailure || string(pqErr.Code) == pgDeadlockDetected
	}
	return false
}

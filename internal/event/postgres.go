// Package event provides the PostgreSQL repository implementation for events.
package event

import (
	"context"
	"database/sql"
	"errors"
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

// Create stores a new event.
func (r *PostgresRepository) Create(ctx context.Context, ev *Event) error {
	const query = `
		INSERT INTO events (id, title, host_uid, starts_at, location)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, ev.ID, ev.Title, ev.HostUID, ev.StartsAt, ev.Location)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrEventExists
	}
	return nil
}

// GetByID retrieves an event by its ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Event, error) {
	const query = `
		SELECT id, title, host_uid, starts_at, location
		FROM events WHERE id = $1`

	ev := &Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ev.ID, &ev.Title, &ev.HostUID, &ev.StartsAt, &ev.Location)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return ev, nil
}

// ListIDsByHost returns the IDs of all events with the given host UID.
func (r *PostgresRepository) ListIDsByHost(ctx context.Context, hostUID string) ([]string, error) {
	const query = `SELECT id FROM events WHERE host_uid = $1`

	rows, err := r.db.QueryContext(ctx, query, hostUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query host events: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate host events: %w", err)
	}
	return ids, nil
}

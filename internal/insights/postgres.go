// Package insights provides the PostgreSQL repository implementation for
// insights documents.
package insights

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresRepository implements Repository using PostgreSQL. The document is
// stored as a single JSONB payload per event; Put is a plain upsert with
// last-writer-wins semantics.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get retrieves the insights document for an event.
func (r *PostgresRepository) Get(ctx context.Context, eventID string) (*EventInsights, error) {
	const query = `SELECT payload FROM ai_insights WHERE event_id = $1`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInsightsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}

	doc := &EventInsights{}
	if err := json.Unmarshal(payload, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insights payload: %w", err)
	}
	return doc, nil
}

// Put stores the insights document, replacing any previous version in full.
func (r *PostgresRepository) Put(ctx context.Context, ins *EventInsights) error {
	payload, err := json.Marshal(ins)
	if err != nil {
		return fmt.Errorf("failed to marshal insights payload: %w", err)
	}

	const query = `
		INSERT INTO ai_insights (event_id, payload, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO UPDATE SET
			payload      = EXCLUDED.payload,
			last_updated = EXCLUDED.last_updated`

	if _, err := r.db.ExecContext(ctx, query, ins.EventID, payload, ins.LastUpdated); err != nil {
		return fmt.Errorf("failed to upsert insights: %w", err)
	}
	return nil
}

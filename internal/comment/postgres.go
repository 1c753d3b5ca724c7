// Package comment provides the PostgreSQL repository implementation for comments.
package comment

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

// Create stores a new comment.
func (r *PostgresRepository) Create(ctx context.Context, c *Comment) error {
	const query = `
		INSERT INTO comments (id, event_id, author_uid, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, c.ID, c.EventID, c.AuthorUID, c.Text, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCommentExists
	}
	return nil
}

// ListByEvent retrieves all comments for an event ordered by creation time.
func (r *PostgresRepository) ListByEvent(ctx context.Context, eventID string) ([]*Comment, error) {
	const query = `
		SELECT id, event_id, author_uid, text, created_at
		FROM comments
		WHERE event_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		c := &Comment{}
		if err := rows.Scan(&c.ID, &c.EventID, &c.AuthorUID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// Package comment provides models and repositories for event comments.
package comment

import (
	"context"
	"errors"
	"time"
)

// ErrCommentExists is returned when attempting to create a duplicate comment.
var ErrCommentExists = errors.New("comment already exists")

// Comment represents a free-form comment left on an event.
// Comment text feeds the keyword sentiment analysis.
type Comment struct {
	ID        string    `json:"id" cbor:"id"`
	EventID   string    `json:"eventId" cbor:"eventId"`
	AuthorUID string    `json:"customerUid,omitempty" cbor:"customerUid,omitempty"`
	Text      string    `json:"text" cbor:"text"`
	CreatedAt time.Time `json:"createdAt" cbor:"createdAt"`
}

// Repository defines the interface for comment data operations.
type Repository interface {
	// Create stores a new comment.
	Create(ctx context.Context, c *Comment) error

	// ListByEvent retrieves all comments for an event ordered by creation time.
	ListByEvent(ctx context.Context, eventID string) ([]*Comment, error)
}

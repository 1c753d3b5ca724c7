// Package feedback provides models and repositories for post-event feedback.
package feedback

import (
	"context"
	"errors"
	"time"
)

// Common errors for feedback operations.
var (
	ErrRecordExists  = errors.New("feedback record already exists")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Record represents a single feedback submission for an event.
// Records are immutable once created.
type Record struct {
	ID          string    `json:"id" cbor:"id"`
	EventID     string    `json:"eventId" cbor:"eventId"`
	Rating      int       `json:"rating" cbor:"rating"`
	Comment     string    `json:"comment,omitempty" cbor:"comment,omitempty"`
	Anonymous   bool      `json:"isAnonymous" cbor:"isAnonymous"`
	CustomerUID string    `json:"customerUid,omitempty" cbor:"customerUid,omitempty"`
	SubmittedAt time.Time `json:"submittedAt" cbor:"submittedAt"`
}

// Validate checks that the record carries a usable rating.
func (rec *Record) Validate() error {
	if rec.Rating < MinRating || rec.Rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// Repository defines the interface for feedback data operations.
type Repository interface {
	// Create stores a new feedback record.
	Create(ctx context.Context, rec *Record) error

	// ListByEvent retrieves all feedback records for an event.
	ListByEvent(ctx context.Context, eventID string) ([]*Record, error)
}

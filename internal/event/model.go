// Package event provides models and repositories for hosted events.
package event

import (
	"context"
	"errors"
	"time"
)

// Common errors for event operations.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventExists   = errors.New("event already exists")
)

// Event represents a hosted gathering with a scheduled date/time.
// HostUID is the customer UID of the organizer; repeat-attendance is
// computed across all events sharing the same host.
type Event struct {
	ID       string    `json:"id" cbor:"id"`
	Title    string    `json:"title" cbor:"title"`
	HostUID  string    `json:"customerUid" cbor:"customerUid"`
	StartsAt time.Time `json:"eventDateTime" cbor:"eventDateTime"`
	Location string    `json:"location,omitempty" cbor:"location,omitempty"`
}

// Repository defines the interface for event data operations.
type Repository interface {
	// Create stores a new event.
	// Returns ErrEventExists if an event with the same ID already exists.
	Create(ctx context.Context, ev *Event) error

	// GetByID retrieves an event by its ID.
	// Returns ErrEventNotFound if the event doesn't exist.
	GetByID(ctx context.Context, id string) (*Event, error)

	// ListIDsByHost returns the IDs of all events with the given host UID.
	ListIDsByHost(ctx context.Context, hostUID string) ([]string, error)
}

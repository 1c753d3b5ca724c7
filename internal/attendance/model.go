// Package attendance provides models and repositories for event check-in records.
package attendance

import (
	"context"
	"errors"
	"time"
)

// Sentinel customer UIDs. These are reserved strings in the customerUid field
// marking records that do not belong to a signed-in user.
const (
	// UIDManual marks an attendee added by hand by the organizer.
	UIDManual = "manual"

	// UIDPreRegistered marks a registration that has not checked in yet.
	// Records with this UID feed the dropout-rate denominator.
	UIDPreRegistered = "pre-registered"

	// UIDWithoutLogin marks a check-in performed without an account.
	UIDWithoutLogin = "without_login"
)

// Common errors for attendance operations.
var (
	ErrRecordExists   = errors.New("attendance record already exists")
	ErrRecordNotFound = errors.New("attendance record not found")
)

// Record represents proof that a user checked into an event.
// Records are immutable once created; aggregation never mutates them.
type Record struct {
	ID          string    `json:"id" cbor:"id"`
	EventID     string    `json:"eventId" cbor:"eventId"`
	CustomerUID string    `json:"customerUid" cbor:"customerUid"`
	AttendedAt  time.Time `json:"attendanceDateTime" cbor:"attendanceDateTime"`
}

// IsSentinel reports whether uid is one of the reserved customer UID values.
func IsSentinel(uid string) bool {
	switch uid {
	case UIDManual, UIDPreRegistered, UIDWithoutLogin:
		return true
	}
	return false
}

// Repository defines the interface for attendance data operations.
type Repository interface {
	// Create stores a new attendance record.
	// Returns ErrRecordExists if a record with the same ID already exists.
	Create(ctx context.Context, rec *Record) error

	// ListByEvent retrieves all attendance records for an event.
	ListByEvent(ctx context.Context, eventID string) ([]*Record, error)

	// CountByEventAndCustomer counts records for an event with the given customer UID.
	// Used with UIDPreRegistered to obtain the dropout-rate denominator.
	CountByEventAndCustomer(ctx context.Context, eventID, customerUID string) (int, error)

	// DistinctEventsByCustomer returns the distinct event IDs, among the given
	// candidate set, that the customer has at least one attendance record for.
	DistinctEventsByCustomer(ctx context.Context, customerUID string, eventIDs []string) ([]string, error)
}

// Package analytics provides repository implementations for the per-event aggregate.
package analytics

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAnalyticsNotFound is returned when no analytics document exists for an event.
var ErrAnalyticsNotFound = errors.New("analytics not found")

// Repository defines data operations on analytics documents.
type Repository interface {
	// Get retrieves the analytics document for an event.
	// Returns ErrAnalyticsNotFound if no document exists yet.
	Get(ctx context.Context, eventID string) (*EventAnalytics, error)

	// Mutate applies fn to the event's analytics document inside a
	// read-modify-write transaction scoped to that single document. If no
	// document exists yet, fn receives a default-initialized one. LastUpdated
	// is stamped after fn returns. Concurrent Mutate calls for the same event
	// are serialized; no lost updates are possible.
	Mutate(ctx context.Context, eventID string, fn func(*EventAnalytics) error) (*EventAnalytics, error)

	// ListUpdatedSince returns analytics documents whose LastUpdated is at or
	// after the given time. Used by the periodic insight sweep.
	ListUpdatedSince(ctx context.Context, since time.Time) ([]*EventAnalytics, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// A single mutex serializes all mutations, which trivially satisfies the
// per-document linearization invariant.
type InMemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]*EventAnalytics
}

// NewInMemoryRepository creates a new in-memory analytics repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{docs: make(map[string]*EventAnalytics)}
}

// Get retrieves the analytics document for an event.
func (r *InMemoryRepository) Get(ctx context.Context, eventID string) (*EventAnalytics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[eventID]
	if !ok {
		return nil, ErrAnalyticsNotFound
	}
	return doc.Clone(), nil
}

// Mutate applies fn to the event's analytics document under the repository lock.
func (r *InMemoryRepository) Mutate(ctx context.Context, eventID string, fn func(*EventAnalytics) error) (*EventAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[eventID]
	if !ok {
		doc = New(eventID)
	}
	working := doc.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.LastUpdated = time.Now()
	r.docs[eventID] = working
	return working.Clone(), nil
}

// ListUpdatedSince returns analytics documents updated at or after since.
func (r *InMemoryRepository) ListUpdatedSince(ctx context.Context, since time.Time) ([]*EventAnalytics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*EventAnalytics
	for _, doc := range r.docs {
		if !doc.LastUpdated.Before(since) {
			result = append(result, doc.Clone())
		}
	}
	return result, nil
}

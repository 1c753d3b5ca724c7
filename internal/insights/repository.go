// Package insights provides repository implementations for insights documents.
package insights

import (
	"context"
	"errors"
	"sync"
)

// ErrInsightsNotFound is returned when no insights document exists for an event.
var ErrInsightsNotFound = errors.New("insights not found")

// Repository defines data operations on insights documents.
type Repository interface {
	// Get retrieves the insights document for an event.
	// Returns ErrInsightsNotFound if none has been generated yet.
	Get(ctx context.Context, eventID string) (*EventInsights, error)

	// Put stores the insights document for an event, replacing any previous
	// version in full. Last writer wins; the document is a derived cache.
	Put(ctx context.Context, ins *EventInsights) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]*EventInsights
}

// NewInMemoryRepository creates a new in-memory insights repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{docs: make(map[string]*EventInsights)}
}

// Get retrieves the insights document for an event.
func (r *InMemoryRepository) Get(ctx context.Context, eventID string) (*EventInsights, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[eventID]
	if !ok {
		return nil, ErrInsightsNotFound
	}
	docCopy := *doc
	docCopy.Optimizations = append([]Optimization(nil), doc.Optimizations...)
	return &docCopy, nil
}

// Put stores the insights document for an event, replacing any previous version.
func (r *InMemoryRepository) Put(ctx context.Context, ins *EventInsights) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *ins
	stored.Optimizations = append([]Optimization(nil), ins.Optimizations...)
	r.docs[ins.EventID] = &stored
	return nil
}

// Package feedback provides the in-memory repository implementation for feedback records.
package feedback

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*Record
	byEvent map[string][]*Record
}

// NewInMemoryRepository creates a new in-memory feedback repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*Record),
		byEvent: make(map[string][]*Record),
	}
}

// Create stores a new feedback record.
func (r *InMemoryRepository) Create(ctx context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rec.ID]; exists {
		return ErrRecordExists
	}
	stored := *rec
	r.byID[rec.ID] = &stored
	r.byEvent[rec.EventID] = append(r.byEvent[rec.EventID], &stored)
	return nil
}

// ListByEvent retrieves all feedback records for an event.
func (r *InMemoryRepository) ListByEvent(ctx context.Context, eventID string) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.byEvent[eventID]
	result := make([]*Record, 0, len(records))
	for _, rec := range records {
		recCopy := *rec
		result = append(result, &recCopy)
	}
	return result, nil
}

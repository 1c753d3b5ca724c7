// Package attendance provides in-memory repository implementations for check-in records.
package attendance

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

// NewInMemoryRepository creates a new in-memory attendance repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*Record),
		byEvent: make(map[string][]*Record),
	}
}

// Create stores a new attendance record.
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

// ListByEvent retrieves all attendance records for an event.
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

// CountByEventAndCustomer counts records for an event with the given customer UID.
func (r *InMemoryRepository) CountByEventAndCustomer(ctx context.Context, eventID, customerUID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, rec := range r.byEvent[eventID] {
		if rec.CustomerUID == customerUID {
			count++
		}
	}
	return count, nil
}

// DistinctEventsByCustomer returns the distinct event IDs among the candidate set
// that the customer has attendance records for.
func (r *InMemoryRepository) DistinctEventsByCustomer(ctx context.Context, customerUID string, eventIDs []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		candidates[id] = true
	}

	seen := make(map[string]bool)
	var result []string
	for _, rec := range r.byID {
		if rec.CustomerUID != customerUID || !candidates[rec.EventID] || seen[rec.EventID] {
			continue
		}
		seen[rec.EventID] = true
		result = append(result, rec.EventID)
	}
	return result, nil
}

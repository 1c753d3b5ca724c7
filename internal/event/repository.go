// Package event provides the in-memory repository implementation for events.
package event

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu     sync.RWMutex
	events map[string]*Event
}

// NewInMemoryRepository creates a new in-memory event repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{events: make(map[string]*Event)}
}

// Create stores a new event.
func (r *InMemoryRepository) Create(ctx context.Context, ev *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[ev.ID]; exists {
		return ErrEventExists
	}
	stored := *ev
	r.events[ev.ID] = &stored
	return nil
}

// GetByID retrieves an event by its ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	evCopy := *ev
	return &evCopy, nil
}

// ListIDsByHost returns the IDs of all events with the given host UID.
func (r *InMemoryRepository) ListIDsByHost(ctx context.Context, hostUID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, ev := range r.events {
		if ev.HostUID == hostUID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Package comment provides the in-memory repository implementation for comments.
package comment

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*Comment
	byEvent map[string][]*Comment
}

// NewInMemoryRepository creates a new in-memory comment repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*Comment),
		byEvent: make(map[string][]*Comment),
	}
}

// Create stores a new comment.
func (r *InMemoryRepository) Create(ctx context.Context, c *Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[c.ID]; exists {
		return ErrCommentExists
	}
	stored := *c
	r.byID[c.ID] = &stored
	r.byEvent[c.EventID] = append(r.byEvent[c.EventID], &stored)
	return nil
}

// ListByEvent retrieves all comments for an event ordered by creation time.
func (r *InMemoryRepository) ListByEvent(ctx context.Context, eventID string) ([]*Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comments := r.byEvent[eventID]
	result := make([]*Comment, 0, len(comments))
	for _, c := range comments {
		cCopy := *c
		result = append(result, &cCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

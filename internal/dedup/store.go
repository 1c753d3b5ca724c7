// Package dedup tracks processed change-feed deliveries so that at-least-once
// redelivery of the same document event is applied at most once. The
// attendance aggregation is deliberately not idempotent; this package is the
// boundary that keeps replays from double-counting.
package dedup

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrEmptyKey is returned when a delivery key is empty.
var ErrEmptyKey = errors.New("delivery key cannot be empty")

// DefaultExpiry is the default retention for seen-delivery keys. Deliveries
// are not redelivered this long after the fact, so older keys can be dropped.
const DefaultExpiry = 24 * time.Hour

// Store persists seen delivery keys.
type Store interface {
	// MarkSeen records a delivery key. Returns true if this is the first
	// sighting, false if the key was already recorded.
	MarkSeen(ctx context.Context, key string) (bool, error)

	// Forget removes a previously recorded delivery key. Callers release a
	// claimed key when processing fails so the redelivery is not skipped.
	// Unknown keys are a no-op.
	Forget(ctx context.Context, key string) error

	// DeleteOlderThan removes keys first seen more than age ago.
	// Returns the number of keys deleted.
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// InMemoryStore implements Store with in-memory storage.
// Thread-safe via mutex.
type InMemoryStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewInMemoryStore creates a new in-memory seen-delivery store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{seen: make(map[string]time.Time)}
}

// MarkSeen records a delivery key, reporting whether it was new.
func (s *InMemoryStore) MarkSeen(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = time.Now()
	return true, nil
}

// Forget removes a previously recorded delivery key.
func (s *InMemoryStore) Forget(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.seen, key)
	return nil
}

// DeleteOlderThan removes keys first seen more than age ago.
func (s *InMemoryStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-age)
	var deleted int64
	for key, seenAt := range s.seen {
		if seenAt.Before(cutoff) {
			delete(s.seen, key)
			deleted++
		}
	}
	return deleted, nil
}

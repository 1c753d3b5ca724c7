package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestInMemoryStore_MarkSeen(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	first, err := store.MarkSeen(ctx, "attendance:att-1")
	if err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}
	if !first {
		t.Error("first sighting should report true")
	}

	first, err = store.MarkSeen(ctx, "attendance:att-1")
	if err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}
	if first {
		t.Error("repeat sighting should report false")
	}

	first, err = store.MarkSeen(ctx, "attendance:att-2")
	if err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}
	if !first {
		t.Error("distinct key should report true")
	}
}

func TestInMemoryStore_Forget(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if _, err := store.MarkSeen(ctx, "attendance:att-1"); err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}
	if err := store.Forget(ctx, "attendance:att-1"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}

	// A forgotten key counts as a first sighting again.
	first, err := store.MarkSeen(ctx, "attendance:att-1")
	if err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}
	if !first {
		t.Error("forgotten key should report true on the next sighting")
	}

	if err := store.Forget(ctx, "attendance:never-seen"); err != nil {
		t.Errorf("Forget() on unknown key should be a no-op, got %v", err)
	}
	if err := store.Forget(ctx, ""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Forget(\"\") error = %v, want ErrEmptyKey", err)
	}
}

func TestInMemoryStore_MarkSeenEmptyKey(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.MarkSeen(context.Background(), ""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("MarkSeen(\"\") error = %v, want ErrEmptyKey", err)
	}
}

func TestInMemoryStore_DeleteOlderThan(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.MarkSeen(ctx, fmt.Sprintf("key-%d", i)); err != nil {
			t.Fatalf("MarkSeen: %v", err)
		}
	}
	// Backdate two of them past the cutoff.
	store.mu.Lock()
	store.seen["key-0"] = time.Now().Add(-48 * time.Hour)
	store.seen["key-1"] = time.Now().Add(-25 * time.Hour)
	store.mu.Unlock()

	deleted, err := store.DeleteOlderThan(ctx, DefaultExpiry)
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	// The survivor is still deduplicated; the deleted keys count as new again.
	if first, _ := store.MarkSeen(ctx, "key-2"); first {
		t.Error("recent key should survive cleanup")
	}
	if first, _ := store.MarkSeen(ctx, "key-0"); !first {
		t.Error("expired key should be forgotten")
	}
}

func TestInMemoryStore_ConcurrentMarkSeen(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	firsts := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := store.MarkSeen(ctx, "shared-key")
			if err != nil {
				t.Errorf("MarkSeen: %v", err)
				return
			}
			firsts <- first
		}()
	}
	wg.Wait()
	close(firsts)

	count := 0
	for first := range firsts {
		if first {
			count++
		}
	}
	if count != 1 {
		t.Errorf("exactly one caller should win the first sighting, got %d", count)
	}
}

func TestCleanupOldKeys(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if _, err := store.MarkSeen(ctx, "old-key"); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	store.mu.Lock()
	store.seen["old-key"] = time.Now().Add(-2 * DefaultExpiry)
	store.mu.Unlock()

	deleted, err := CleanupOldKeys(ctx, store, DefaultExpiry)
	if err != nil {
		t.Fatalf("CleanupOldKeys() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

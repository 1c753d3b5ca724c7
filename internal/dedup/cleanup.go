// Package dedup provides cleanup utilities for the seen-delivery store.
package dedup

import (
	"context"
	"log/slog"
	"time"
)

// CleanupOldKeys removes seen-delivery keys older than the given expiry.
// Called periodically to prevent unbounded growth.
// Returns the number of keys deleted and any error encountered.
func CleanupOldKeys(ctx context.Context, store Store, expiry time.Duration) (int64, error) {
	deleted, err := store.DeleteOlderThan(ctx, expiry)
	if err != nil {
		slog.Error("failed to cleanup old delivery keys", "error", err)
		return 0, err
	}
	if deleted > 0 {
		slog.Info("cleaned up old delivery keys", "deleted", deleted, "older_than", expiry)
	}
	return deleted, nil
}

// RunPeriodicCleanup runs the cleanup job at the given interval until the
// context is cancelled. Blocks; typically run in a goroutine.
func RunPeriodicCleanup(ctx context.Context, store Store, interval, expiry time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once immediately on start.
	if _, err := CleanupOldKeys(ctx, store, expiry); err != nil {
		slog.Error("initial delivery-key cleanup failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := CleanupOldKeys(ctx, store, expiry); err != nil {
				slog.Error("periodic delivery-key cleanup failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("stopping delivery-key cleanup")
			return
		}
	}
}

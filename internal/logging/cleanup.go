package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
)

// StartCleanup runs a daily goroutine that deletes system logs older than
// retentionDays.
func StartCleanup(logs store.LogStore, retentionDays int, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				Prune(logs, retentionDays, time.Now())
			case <-done:
				return
			}
		}
	}()
}

// Prune removes logs older than retentionDays before now.
func Prune(logs store.LogStore, retentionDays int, now time.Time) {
	cutoff := now.AddDate(0, 0, -retentionDays)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := logs.PruneSystemLogs(ctx, cutoff)
	if err != nil {
		slog.Error("log cleanup failed", "error", err)
	} else if deleted > 0 {
		slog.Info("log cleanup completed", "deleted", deleted)
	}
}

package session

import (
	"context"
	"log/slog"
	"time"
)

// StartSweeper runs a background goroutine that periodically evicts idle
// fallback-tier sessions. It stops when ctx is canceled.
func StartSweeper(ctx context.Context, st *Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("session sweeper started", "interval", interval, "idle_ttl", st.idleTTL)

		for {
			select {
			case <-ticker.C:
				st.Cleanup()
			case <-ctx.Done():
				slog.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

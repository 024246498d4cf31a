package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = time.Minute

// Sweeper removes expired sessions.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// StartSweeper runs a background goroutine that periodically removes
// expired sessions until ctx is done.
func StartSweeper(ctx context.Context, s Sweeper, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				removed, err := s.Sweep(ctx)
				if err != nil {
					slog.Error("Session sweep failed", "error", err)
					continue
				}
				if removed > 0 {
					slog.Info("Session sweeper removed expired sessions", "count", removed)
				}
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

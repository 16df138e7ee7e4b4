package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/Daltraxx/life-rpg-sub000/internal/session"
)

// SweepSessions drops setups idle for longer than ttl until ctx is done.
func SweepSessions(ctx context.Context, store *session.MemoryStore[*SetupSession], ttl time.Duration, logger *slog.Logger) {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			removed := store.Sweep(ttl)
			for _, ss := range removed {
				ss.Close()
			}
			if len(removed) > 0 {
				logger.Debug("expired setup sessions", "count", len(removed), "live", store.Len())
			}
		}
	}
}

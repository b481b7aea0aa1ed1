package rooms

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Reaper is the supplemented idle-room sweep from SPEC_FULL.md §4.10,
// grounded on _examples/original_source/src/room/{activity_tracker.rs,
// cleanup_task.rs}. It deletes rooms that have had no traffic for
// idleTimeout and are not currently in_game — games in progress are never
// reaped regardless of idle time.
type Reaper struct {
	coordinator *Coordinator
	idleTimeout time.Duration
	interval    time.Duration
	logger      *log.Logger
}

// NewReaper builds a Reaper that sweeps every interval, deleting rooms idle
// past idleTimeout. A sensible interval is idleTimeout/4, capped at one
// minute, so short test timeouts still get swept promptly.
func NewReaper(c *Coordinator, idleTimeout time.Duration, logger *log.Logger) *Reaper {
	interval := idleTimeout / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Reaper{coordinator: c, idleTimeout: idleTimeout, interval: interval, logger: logger}
}

// Run sweeps on a ticker until ctx is cancelled. Intended to be started as
// a single long-lived goroutine from cmd/bigtwoserver.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Reaper) sweep() {
	now := time.Now()
	for _, room := range r.coordinator.List() {
		room.mu.Lock()
		idle := now.Sub(room.LastActivity) > r.idleTimeout
		inGame := room.Status == StatusInGame
		id := room.ID
		room.mu.Unlock()

		if idle && !inGame {
			if r.logger != nil {
				r.logger.Debug("reaping idle room", "room", id)
			}
			r.coordinator.Delete(id)
		}
	}
}

package reaper

import (
	"context"
	"time"

	"broadcastmusic/internal/metrics"

	"go.uber.org/zap"
)

// Rooms is the part of the room registry the reaper needs.
type Rooms interface {
	Reap(ttl time.Duration, busy func(roomID string) bool) []string
}

// Clients reports whether a room still has attached streams.
type Clients interface {
	HasClients(roomID string) bool
}

// Every interval, drop rooms idle for longer than ttl with nobody attached.
// A zero ttl disables the reaper.
func Run(ctx context.Context, rooms Rooms, clients Clients, ttl, interval time.Duration) {
	if ttl <= 0 {
		zap.L().Debug("reaper.disabled")
		return
	}
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				reapOnce(rooms, clients, ttl)
			}
		}
	}()
}

func reapOnce(rooms Rooms, clients Clients, ttl time.Duration) []string {
	reaped := rooms.Reap(ttl, clients.HasClients)
	if len(reaped) == 0 {
		return nil
	}
	metrics.RoomsReaped.Add(float64(len(reaped)))
	zap.L().Info("reaper.rooms_removed",
		zap.Strings("rooms", reaped),
		zap.Duration("ttl", ttl),
	)
	return reaped
}

package workers

import (
	"context"
	"log/slog"
	"time"

	"room-sync/admission"
	"room-sync/contract"
)

// BoostWatcher checks boost expiry on a timer, since expiry is not guaranteed to be pushed.
type BoostWatcher struct {
	log      *slog.Logger
	room     contract.RoomView
	gate     *admission.Gate
	interval time.Duration
	now      func() time.Time
}

func NewBoostWatcher(log *slog.Logger, room contract.RoomView, gate *admission.Gate, interval time.Duration) *BoostWatcher {
	return &BoostWatcher{log: log, room: room, gate: gate, interval: interval, now: time.Now}
}

func (w *BoostWatcher) WithClock(now func() time.Time) *BoostWatcher {
	w.now = now
	return w
}

func (w *BoostWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check asks the room to refetch canonical state once its boost has elapsed.
func (w *BoostWatcher) Check() admission.BoostStatus {
	status := w.gate.EvaluateBoostExpiry(w.room.State(), w.now())
	if status == admission.BoostExpired {
		w.log.Info("Boost expired, refreshing room")
		w.room.Refresh()
	}
	return status
}

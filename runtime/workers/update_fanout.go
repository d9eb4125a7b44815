package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"room-sync/contract"
	"room-sync/domain"
)

// UpdateHook reacts to an update before observers see it. A returned notice is
// delivered to observers as a follow-up update carrying the same state.
type UpdateHook func(ctx context.Context, update domain.Update) *domain.Notice

// UpdateFanout delivers the updates of one room to every observer.
//
// Delivery is best effort: a sink slower than the sink timeout is cut off for that update.
// All sinks get update n before any sink gets update n+1.
type UpdateFanout struct {
	log         *slog.Logger
	roomID      domain.RoomID
	updates     <-chan domain.Update
	registry    contract.IRegistry
	sinks       []contract.StateSink
	hooks       []UpdateHook
	sinkTimeout time.Duration
}

func NewUpdateFanout(log *slog.Logger, roomID domain.RoomID, updates <-chan domain.Update,
	registry contract.IRegistry, sinkTimeout time.Duration) *UpdateFanout {
	return &UpdateFanout{
		log:         log,
		roomID:      roomID,
		updates:     updates,
		registry:    registry,
		sinkTimeout: sinkTimeout,
	}
}

// Add registers permanent sinks receiving every update of the room.
func (w *UpdateFanout) Add(sinks ...contract.StateSink) *UpdateFanout {
	w.sinks = append(w.sinks, sinks...)
	return w
}

func (w *UpdateFanout) Hook(hooks ...UpdateHook) *UpdateFanout {
	w.hooks = append(w.hooks, hooks...)
	return w
}

func (w *UpdateFanout) Run(ctx context.Context) error {
	for {
		select {
		case u, ok := <-w.updates:
			if !ok {
				return nil
			}
			w.handle(ctx, u)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping update fanout")
			return nil
		}
	}
}

func (w *UpdateFanout) handle(ctx context.Context, u domain.Update) {
	var followUps []*domain.Notice
	for _, hook := range w.hooks {
		if n := hook(ctx, u); n != nil {
			followUps = append(followUps, n)
		}
	}
	w.Fanout(ctx, u)
	for _, n := range followUps {
		next := u
		next.Notice = n
		next.Cause = string(n.Kind)
		w.Fanout(ctx, next)
	}
}

// Drain delivers the updates left in the channel after the room stopped, without hooks.
func (w *UpdateFanout) Drain(ctx context.Context) int {
	n := 0
	for {
		select {
		case u, ok := <-w.updates:
			if !ok {
				return n
			}
			w.Fanout(ctx, u)
			n++
		default:
			return n
		}
	}
}

// Fanout sends one update to the permanent sinks and to the room observers, in parallel.
func (w *UpdateFanout) Fanout(ctx context.Context, u domain.Update) {
	sinks := append(append([]contract.StateSink{}, w.sinks...), w.registry.GetSinksForRoom(w.roomID)...)

	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(sink contract.StateSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			// Each observer gets its own copy of the state.
			update := u
			update.State = u.State.Clone()
			if err := sink.Consume(sinkCtx, update); err != nil {
				w.log.Warn("Observer did not consume update", "cause", u.Cause, "error", err)
			}
		}(sink)
	}
	wg.Wait()
}

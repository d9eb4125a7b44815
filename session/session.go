package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"room-sync/contract"
	"room-sync/domain"
	"room-sync/domain/event"
	"room-sync/errors"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	SnapshotTimeout time.Duration
	StoreTimeout    time.Duration
	TombstoneWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		SnapshotTimeout: 5 * time.Second,
		StoreTimeout:    8 * time.Second,
		TombstoneWindow: 5 * time.Second,
	}
}

var _ contract.Worker = (*Session)(nil)

// Session owns the Machine of one room membership and is its only writer.
// Every Run starts from a fresh Machine, so a restarted session never reuses state.
type Session struct {
	log     *slog.Logger
	roomID  domain.RoomID
	userID  string
	bus     contract.EventBus
	store   contract.StoreReader
	cfg     Config
	now     func() time.Time
	updates chan<- domain.Update
	refresh chan struct{}
	notices chan domain.Notice

	mu      sync.RWMutex
	current domain.Update
}

func New(log *slog.Logger, roomID domain.RoomID, userID string,
	bus contract.EventBus, store contract.StoreReader,
	cfg Config, updates chan<- domain.Update) *Session {
	return &Session{
		log:     log,
		roomID:  roomID,
		userID:  userID,
		bus:     bus,
		store:   store,
		cfg:     cfg,
		now:     time.Now,
		updates: updates,
		refresh: make(chan struct{}, 1),
		notices: make(chan domain.Notice, 4),
		current: domain.Update{State: domain.NewRoomState(roomID), Phase: domain.Uninitialized},
	}
}

// WithClock replaces the wall clock, for tests.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.now = now
	return s
}

func (s *Session) RoomID() domain.RoomID {
	return s.roomID
}

// Current returns the last published update.
func (s *Session) Current() domain.Update {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.current
	u.State = u.State.Clone()
	return u
}

func (s *Session) State() domain.RoomState {
	return s.Current().State
}

func (s *Session) Phase() domain.Phase {
	return s.Current().Phase
}

// Refresh asks the loop to drop an expired boost and re-read canonical state.
// Requests coalesce while one is pending.
func (s *Session) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Notify publishes a notice from the session loop, ordered with the session's own updates.
func (s *Session) Notify(ctx context.Context, notice domain.Notice) error {
	select {
	case s.notices <- notice:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close settles the session as Closed once Run has returned or will never run.
// It returns the closing update only when Run did not publish one itself.
func (s *Session) Close() (domain.Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Phase == domain.Closed {
		return domain.Update{}, false
	}
	s.current.Phase = domain.Closed
	s.current.Reason = domain.NoReason
	s.current.Cause = "leave"
	s.current.Notice = nil
	s.current.State.Connection = domain.Disconnected
	u := s.current
	u.State = u.State.Clone()
	return u, true
}

// Run joins the room and applies both sources until ctx is cancelled.
// Cancelling ctx closes the session, cancels pending store reads and unsubscribes from the bus.
func (s *Session) Run(ctx context.Context) error {
	machine := NewMachine(s.log, s.roomID, s.userID, s.cfg.TombstoneWindow)
	s.publish(ctx, machine, "join", machine.Begin())

	// Closing must reach observers even though ctx is already done.
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), s.cfg.StoreTimeout)
		defer cancel()
		s.publish(closeCtx, machine, "leave", machine.Close())
	}()

	storeResults := make(chan StoreResult, 2)
	s.readStore(ctx, storeResults)

	events, unsubscribe, err := s.bus.Subscribe(s.roomID)
	if err != nil {
		s.log.Error("Event bus subscription failed", "error", err)
		s.publish(ctx, machine, string(event.DisconnectType), machine.Apply(
			event.New(event.DisconnectType, s.roomID, event.Disconnected{Reason: err.Error()}), s.now()))
	} else {
		defer unsubscribe()
		s.emit(ctx, machine, domain.JoinRoomCommand, domain.JoinRoomPayload{UserID: s.userID})
	}

	timer := time.NewTimer(s.cfg.SnapshotTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Leaving room")
			return nil
		case evt, ok := <-events:
			if !ok {
				events = nil
				evt = event.New(event.DisconnectType, s.roomID, event.Disconnected{Reason: "bus closed"})
			}
			out := machine.Apply(evt, s.now())
			s.handle(ctx, machine, string(evt.Type), out, storeResults)
		case res := <-storeResults:
			s.publish(ctx, machine, "store", machine.ApplyStore(res, s.now()))
		case <-timer.C:
			s.publish(ctx, machine, "snapshot-timeout", machine.SnapshotTimeout())
		case <-s.refresh:
			s.handle(ctx, machine, "refresh", machine.ExpireBoost(s.now()), storeResults)
		case n := <-s.notices:
			s.publish(ctx, machine, string(n.Kind), Outcome{Notice: &n})
		}
	}
}

func (s *Session) handle(ctx context.Context, machine *Machine, cause string, out Outcome, storeResults chan StoreResult) {
	if out.Refetch {
		s.readStore(ctx, storeResults)
	}
	if out.Resync {
		s.emit(ctx, machine, domain.JoinRoomCommand, domain.JoinRoomPayload{UserID: s.userID})
	}
	s.publish(ctx, machine, cause, out)
}

// emit sends a command to the bus. A failure while loading counts as an unreachable bus,
// and a join that could not be sent is retried on the next connect.
func (s *Session) emit(ctx context.Context, machine *Machine, t domain.CommandType, payload any) {
	if err := s.bus.Emit(ctx, domain.NewCommand(t, s.roomID, s.userID, payload)); err != nil {
		s.log.Warn("Event bus emit failed", "command", t, "error", err)
		if t == domain.JoinRoomCommand {
			machine.awaitReconnect()
		}
		if machine.Phase() == domain.Loading {
			s.publish(ctx, machine, "emit-failed", machine.degrade(domain.ReasonBusUnreachable))
		}
	}
}

func (s *Session) publish(ctx context.Context, machine *Machine, cause string, out Outcome) {
	if !out.Changed && out.Notice == nil {
		return
	}
	u := machine.Update(cause, out.Notice)
	s.mu.Lock()
	s.current = u
	s.mu.Unlock()

	if s.updates == nil {
		return
	}
	select {
	case s.updates <- u:
	case <-ctx.Done():
		s.log.Debug("Update dropped, session closing", "cause", cause)
	}
}

// readStore starts one store read round in the background. The room row and the boost
// are read in parallel; the tier policy depends on the room's creator tier.
func (s *Session) readStore(ctx context.Context, results chan<- StoreResult) {
	go func() {
		res := s.fetch(ctx)
		select {
		case results <- res:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) fetch(parent context.Context) StoreResult {
	ctx, cancel := context.WithTimeout(parent, s.cfg.StoreTimeout)
	defer cancel()

	var (
		record domain.RoomRecord
		boost  *domain.Boost
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.store.GetRoomSettings(gctx, s.roomID)
		if err != nil {
			return err
		}
		record = r
		return nil
	})
	g.Go(func() error {
		b, err := s.store.GetActiveBoost(gctx, s.roomID, s.now())
		if err != nil {
			if errors.Is(err, errors.ErrAuthExpired) {
				return err
			}
			s.log.Warn("Active boost read failed", "error", err)
			return nil
		}
		boost = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return StoreResult{Err: classify(ctx, err)}
	}

	policy, err := s.store.GetTierPolicy(ctx, record.CreatorTier)
	if err != nil {
		if errors.Is(err, errors.ErrAuthExpired) {
			return StoreResult{Err: err}
		}
		s.log.Warn("Tier policy read failed, using defaults", "tier", record.CreatorTier, "error", err)
		policy = domain.DefaultTierPolicy(record.CreatorTier)
	}
	return StoreResult{Record: &record, Policy: &policy, Boost: boost}
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, errors.ErrAuthExpired) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", errors.ErrTimeout, err)
	}
	return err
}

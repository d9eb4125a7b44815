// Package runtime joins rooms, supervises their workers and routes user intents.
// It holds no reconciliation or admission rules of its own.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"room-sync/admission"
	"room-sync/contract"
	"room-sync/deck"
	"room-sync/domain"
	"room-sync/domain/event"
	"room-sync/errors"
	"room-sync/runtime/workers"
	"room-sync/session"
)

type Config struct {
	Session            session.Config
	SinkTimeout        time.Duration
	BoostCheckInterval time.Duration
	RestartInterval    time.Duration
	BufferSize         int
	CapacityInterval   time.Duration
	// LowCapacityThreshold is the number of free update slots below which a warning is logged.
	LowCapacityThreshold int
}

func DefaultConfig() Config {
	return Config{
		Session:              session.DefaultConfig(),
		SinkTimeout:          time.Second,
		BoostCheckInterval:   time.Second,
		RestartInterval:      workers.DefaultRestartInterval,
		BufferSize:           64,
		CapacityInterval:     10 * time.Second,
		LowCapacityThreshold: 8,
	}
}

// Room is one joined room: its session, its gate and, when a player is wired, its decks.
type Room struct {
	ID      domain.RoomID
	Session *session.Session
	Gate    *admission.Gate
	Decks   *deck.Engine

	supervisor *workers.Supervisor
	fanout     *workers.UpdateFanout
	updates    chan domain.Update
	cancel     context.CancelFunc
	done       chan struct{}
}

type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	userID         string
	bus            contract.EventBus
	store          contract.StoreReader
	registry       *Registry
	player         contract.DeckPlayer
	estimator      contract.TempoEstimator
	permanentSinks []contract.StateSink
	rooms          map[domain.RoomID]*Room
	cfg            Config
}

func NewOrchestrator(log *slog.Logger, userID string, bus contract.EventBus, store contract.StoreReader,
	registry *Registry, cfg Config) *Orchestrator {
	return &Orchestrator{
		log:      log,
		userID:   userID,
		bus:      bus,
		store:    store,
		registry: registry,
		rooms:    make(map[domain.RoomID]*Room),
		cfg:      cfg,
	}
}

// WithDecks gives every joined room a deck console driving player.
func (o *Orchestrator) WithDecks(player contract.DeckPlayer, estimator contract.TempoEstimator) *Orchestrator {
	o.player = player
	o.estimator = estimator
	return o
}

// Add registers sinks receiving the updates of every room.
func (o *Orchestrator) Add(sinks ...contract.StateSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

func (o *Orchestrator) RegisterObserver(observerID string, roomID domain.RoomID, sink contract.StateSink) {
	o.registry.Subscribe(observerID, roomID, sink)
}

func (o *Orchestrator) UnregisterObserver(observerID string, roomID domain.RoomID) {
	o.registry.Unsubscribe(observerID, roomID)
}

// Join starts a fresh session for roomID, living until Leave or until ctx is done.
// Joining a room twice is refused; a room left earlier is joined from scratch.
func (o *Orchestrator) Join(ctx context.Context, roomID domain.RoomID) (*Room, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.rooms[roomID]; ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrAlreadyJoined, roomID)
	}

	log := o.log.With("room_id", roomID)
	room := &Room{
		ID:         roomID,
		Gate:       admission.NewGate(log),
		supervisor: workers.NewSupervisor(log, o.cfg.RestartInterval),
		updates:    make(chan domain.Update, o.cfg.BufferSize),
		done:       make(chan struct{}),
	}
	room.Session = session.New(log, roomID, o.userID, o.bus, o.store, o.cfg.Session, room.updates)
	if o.player != nil {
		room.Decks = deck.NewEngine(log, o.player, o.estimator)
	}

	room.fanout = workers.NewUpdateFanout(log, roomID, room.updates, o.registry, o.cfg.SinkTimeout).
		Add(o.permanentSinks...).
		Hook(o.monetization(room))
	if room.Decks != nil {
		room.fanout.Hook(o.deckConsole(room))
	}
	room.supervisor.Add(
		room.Session,
		room.fanout,
		workers.NewBoostWatcher(log, room.Session, room.Gate, o.cfg.BoostCheckInterval),
		workers.NewChannelCapacityWorker(log,
			[]workers.NamedChannel{{Name: "updates", Channel: room.updates}},
			o.cfg.CapacityInterval, o.cfg.LowCapacityThreshold),
	)

	roomCtx, cancel := context.WithCancel(ctx)
	room.cancel = cancel
	go func() {
		defer close(room.done)
		room.supervisor.Run(roomCtx)
	}()

	o.rooms[roomID] = room
	o.log.Info("Room joined", "room_id", roomID, "user_id", o.userID)
	return room, nil
}

// Leave closes the session, cancels its pending reads and waits for its workers.
// Observers always end with a Closed update, even when the session never started.
func (o *Orchestrator) Leave(roomID domain.RoomID) error {
	o.mu.Lock()
	room, ok := o.rooms[roomID]
	delete(o.rooms, roomID)
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrNotJoined, roomID)
	}

	room.cancel()
	<-room.done
	room.fanout.Drain(context.Background())
	if closed, ok := room.Session.Close(); ok {
		room.fanout.Fanout(context.Background(), closed)
	}
	o.registry.DropRoom(roomID)
	o.log.Info("Room left", "room_id", roomID)
	return nil
}

// Stop leaves every room.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.mu.Lock()
	ids := make([]domain.RoomID, 0, len(o.rooms))
	for id := range o.rooms {
		ids = append(ids, id)
	}
	o.mu.Unlock()
	for _, id := range ids {
		_ = o.Leave(id)
	}
}

func (o *Orchestrator) Room(roomID domain.RoomID) (*Room, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	room, ok := o.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrNotJoined, roomID)
	}
	return room, nil
}

// monetization runs the gate side effects: server blocks and ad breaks on track advance.
func (o *Orchestrator) monetization(room *Room) workers.UpdateHook {
	return func(ctx context.Context, u domain.Update) *domain.Notice {
		if u.State.Blocked != nil {
			if u.Notice != nil && u.Notice.Kind == domain.NoticePlaybackBlocked {
				room.Gate.OnPlaybackBlocked(*u.State.Blocked)
			}
		} else if room.Gate.LiftBlock() {
			o.log.Info("Playback block lifted", "room_id", room.ID)
		}
		if u.Cause != string(event.NextTrackType) || u.State.CurrentTrack == nil {
			return nil
		}
		if !room.Gate.OnTrackAdvance(u.State).ShowAd {
			return nil
		}
		if err := o.emit(ctx, room.ID, domain.PauseCommand, nil); err != nil {
			o.log.Warn("Ad break pause not sent", "room_id", room.ID, "error", err)
		}
		return &domain.Notice{Kind: domain.NoticeAdBreak, Message: u.State.CurrentTrack.Title}
	}
}

// deckConsole keeps the deck count in line with the room settings and effective policy.
// Only live updates resize the console.
func (o *Orchestrator) deckConsole(room *Room) workers.UpdateHook {
	return func(ctx context.Context, u domain.Update) *domain.Notice {
		if u.Phase != domain.Live {
			return nil
		}
		err := room.Decks.Configure(ctx, u.State.Settings, u.State.EffectivePolicy(time.Now()))
		if err != nil && !errors.Is(err, errors.ErrDJModeDisabled) {
			o.log.Warn("Deck console not configured", "room_id", room.ID, "error", err)
		}
		return nil
	}
}

func (o *Orchestrator) emit(ctx context.Context, roomID domain.RoomID, t domain.CommandType, payload any) error {
	return o.bus.Emit(ctx, domain.NewCommand(t, roomID, o.userID, payload))
}

// gated checks the gate against the current state, then sends the intent.
// Nothing is sent when the gate refuses.
func (o *Orchestrator) gated(ctx context.Context, roomID domain.RoomID, t domain.CommandType, payload any,
	check func(room *Room, state domain.RoomState) error) error {
	room, err := o.Room(roomID)
	if err != nil {
		return err
	}
	if err := check(room, room.Session.State()); err != nil {
		return err
	}
	return o.emit(ctx, roomID, t, payload)
}

func (o *Orchestrator) AddTrack(ctx context.Context, roomID domain.RoomID, track domain.Track) error {
	if err := domain.ValidateTrack(track); err != nil {
		return err
	}
	if track.AddedBy == "" {
		track.AddedBy = o.userID
	}
	return o.gated(ctx, roomID, domain.AddTrackCommand, domain.AddTrackPayload{Track: track},
		func(room *Room, st domain.RoomState) error { return room.Gate.CanQueue(st, o.userID) })
}

func (o *Orchestrator) RemoveTrack(ctx context.Context, roomID domain.RoomID, trackID string) error {
	return o.gated(ctx, roomID, domain.RemoveTrackCommand, domain.RemoveTrackPayload{TrackID: trackID},
		func(room *Room, st domain.RoomState) error {
			track, ok := st.QueuedTrack(trackID)
			if !ok {
				return fmt.Errorf("%w: track %s not queued", errors.ErrInvalidPayload, trackID)
			}
			return room.Gate.CanRemove(st, o.userID, track)
		})
}

func (o *Orchestrator) Play(ctx context.Context, roomID domain.RoomID) error {
	return o.gated(ctx, roomID, domain.PlayCommand, nil,
		func(room *Room, st domain.RoomState) error { return room.Gate.CanResume(st, o.userID) })
}

func (o *Orchestrator) Pause(ctx context.Context, roomID domain.RoomID) error {
	return o.gated(ctx, roomID, domain.PauseCommand, nil,
		func(room *Room, st domain.RoomState) error { return room.Gate.CanControlPlayback(st, o.userID) })
}

func (o *Orchestrator) Next(ctx context.Context, roomID domain.RoomID) error {
	return o.gated(ctx, roomID, domain.NextTrackCommand, nil,
		func(room *Room, st domain.RoomState) error { return room.Gate.CanControlPlayback(st, o.userID) })
}

func (o *Orchestrator) SyncPosition(ctx context.Context, roomID domain.RoomID, positionMs int64, playing bool) error {
	return o.gated(ctx, roomID, domain.SyncPositionCommand, domain.SyncPositionPayload{PositionMs: max(positionMs, 0), IsPlaying: playing},
		func(room *Room, st domain.RoomState) error { return room.Gate.CanControlPlayback(st, o.userID) })
}

// UpdateSettings is reserved to the owner and admins.
func (o *Orchestrator) UpdateSettings(ctx context.Context, roomID domain.RoomID, patch domain.SettingsPatch) error {
	if err := domain.ValidatePatch(patch); err != nil {
		return err
	}
	return o.gated(ctx, roomID, domain.UpdateRoomSettingsCommand, patch,
		func(_ *Room, st domain.RoomState) error {
			user, _ := st.User(o.userID)
			if !user.IsOwner && !user.IsAdmin {
				return fmt.Errorf("%w: settings are restricted to the owner and admins", errors.ErrPermissionDenied)
			}
			return nil
		})
}

// DismissAd ends the ad break and resumes playback unless the server blocked it.
// The dismissal reaches observers through the session, after any update already published.
func (o *Orchestrator) DismissAd(ctx context.Context, roomID domain.RoomID) error {
	room, err := o.Room(roomID)
	if err != nil {
		return err
	}
	if !room.Gate.AdPending() {
		return nil
	}
	resume := room.Gate.DismissAd(room.Session.State())
	if err := room.Session.Notify(ctx, domain.Notice{Kind: domain.NoticeAdDismissed}); err != nil {
		return err
	}
	if !resume {
		return nil
	}
	return o.emit(ctx, roomID, domain.PlayCommand, nil)
}

// Package session reconciles the realtime event stream and the persisted store
// into one canonical RoomState per joined room.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"room-sync/domain"
	"room-sync/domain/event"
	"room-sync/errors"

	"github.com/samber/lo"
)

// StoreResult is the outcome of one store read round: room row, creator tier policy and boost.
type StoreResult struct {
	Record *domain.RoomRecord
	Policy *domain.TierSettings
	Boost  *domain.Boost
	Err    error
}

// Outcome tells the driver of a Machine what to do after a transition.
type Outcome struct {
	Changed bool
	Notice  *domain.Notice
	// Resync asks the server for a fresh room-state snapshot.
	Resync bool
	// Refetch asks for a new store read.
	Refetch bool
}

func (o Outcome) merge(other Outcome) Outcome {
	o.Changed = o.Changed || other.Changed
	o.Resync = o.Resync || other.Resync
	o.Refetch = o.Refetch || other.Refetch
	if other.Notice != nil {
		o.Notice = other.Notice
	}
	return o
}

// stamp records which source last wrote a field and how fresh it was.
type stamp struct {
	set bool
	at  time.Time
	bus bool
}

// storeMayWrite is strict: an equal or older row never wins over a set stamp.
func (s stamp) storeMayWrite(at time.Time) bool {
	return !s.set || at.After(s.at)
}

// busMayWrite lets bus messages replace each other in delivery order,
// but a store-written value only yields to a strictly newer message.
func (s stamp) busMayWrite(at time.Time) bool {
	return !s.set || s.bus || at.After(s.at)
}

// Machine is the session state machine. It is not safe for concurrent use:
// exactly one goroutine (the Session loop) drives it.
type Machine struct {
	log    *slog.Logger
	userID string

	phase  domain.Phase
	reason domain.DegradedReason
	state  domain.RoomState

	settings     stamp
	policy       stamp
	lastSnapshot stamp
	snapshotSeen bool
	// boostFromBus is set once the bus spoke about the boost; the store then only extends it.
	boostFromBus bool
	storeDone    bool
	storeOK      bool
	disconnected bool

	tombstoneWindow time.Duration
	tombstones      map[string]time.Time
}

func NewMachine(log *slog.Logger, roomID domain.RoomID, userID string, tombstoneWindow time.Duration) *Machine {
	return &Machine{
		log:             log,
		userID:          userID,
		phase:           domain.Uninitialized,
		state:           domain.NewRoomState(roomID),
		tombstoneWindow: tombstoneWindow,
		tombstones:      make(map[string]time.Time),
	}
}

func (m *Machine) Phase() domain.Phase {
	return m.phase
}

func (m *Machine) Reason() domain.DegradedReason {
	return m.reason
}

// State returns a copy of the canonical state.
func (m *Machine) State() domain.RoomState {
	return m.state.Clone()
}

func (m *Machine) Update(cause string, notice *domain.Notice) domain.Update {
	return domain.Update{
		State:  m.State(),
		Phase:  m.phase,
		Reason: m.reason,
		Cause:  cause,
		Notice: notice,
	}
}

// Begin moves Uninitialized to Loading. Both sources are expected to be in flight after it.
func (m *Machine) Begin() Outcome {
	if m.phase != domain.Uninitialized {
		return Outcome{}
	}
	m.phase = domain.Loading
	m.state.Connection = domain.Connecting
	return Outcome{Changed: true}
}

// Close is terminal. Nothing is applied afterwards.
func (m *Machine) Close() Outcome {
	if m.phase == domain.Closed {
		return Outcome{}
	}
	m.phase = domain.Closed
	m.reason = domain.NoReason
	m.state.Connection = domain.Disconnected
	clear(m.tombstones)
	return Outcome{Changed: true}
}

func (m *Machine) degrade(reason domain.DegradedReason) Outcome {
	if m.phase != domain.Loading {
		return Outcome{}
	}
	m.phase = domain.Degraded
	m.reason = reason
	m.state.Stale = true
	m.log.Warn("Room session degraded", "reason", reason)

	out := Outcome{Changed: true}
	if m.storeDone && !m.storeOK {
		out.Notice = &domain.Notice{
			Kind:    domain.NoticeTimeout,
			Err:     errors.ErrTimeout,
			Message: "no room data available",
		}
	}
	return out
}

// SnapshotTimeout fires when the bounded snapshot wait elapsed.
func (m *Machine) SnapshotTimeout() Outcome {
	return m.degrade(domain.ReasonSnapshotTimeout)
}

// ApplyStore merges a store read. Settings and tier policy only move forward in time.
func (m *Machine) ApplyStore(res StoreResult, now time.Time) Outcome {
	if m.phase == domain.Closed || m.phase == domain.Uninitialized {
		return Outcome{}
	}
	m.storeDone = true

	if res.Err != nil {
		m.storeOK = false
		if errors.Is(res.Err, errors.ErrAuthExpired) {
			m.log.Warn("Store read rejected, session expired")
			return Outcome{Changed: true, Notice: &domain.Notice{
				Kind: domain.NoticeAuthExpired, Err: res.Err, Message: "sign in again to load this room",
			}}
		}
		m.log.Error("Store read failed, showing empty room", "error", res.Err)
		notice := &domain.Notice{Kind: domain.NoticeStoreFailed, Err: res.Err}
		if m.phase == domain.Degraded && !m.snapshotSeen {
			notice = &domain.Notice{Kind: domain.NoticeTimeout, Err: fmt.Errorf("%w: %v", errors.ErrTimeout, res.Err)}
		}
		return Outcome{Changed: true, Notice: notice}
	}
	m.storeOK = true

	if res.Record != nil {
		rec := res.Record
		if m.state.CreatorID == "" {
			m.state.CreatorID = rec.CreatorID
		}
		if m.settings.storeMayWrite(rec.UpdatedAt) {
			m.state.Settings = rec.Settings
			m.settings = stamp{set: true, at: rec.UpdatedAt}
		}
		if res.Policy != nil && m.policy.storeMayWrite(rec.UpdatedAt) {
			m.state.TierPolicy = *res.Policy
			m.policy = stamp{set: true, at: rec.UpdatedAt}
		}
	}

	if res.Boost.ActiveAt(now) {
		if !m.boostFromBus || m.state.ActiveBoost == nil || res.Boost.ExpiresAt.After(m.state.ActiveBoost.ExpiresAt) {
			m.state.ActiveBoost = lo.ToPtr(*res.Boost)
		}
	} else if !m.boostFromBus {
		m.state.ActiveBoost = nil
	}
	return Outcome{Changed: true}
}

// ExpireBoost drops a boost whose time has passed and asks for canonical state.
func (m *Machine) ExpireBoost(now time.Time) Outcome {
	if m.state.ActiveBoost == nil || m.state.ActiveBoost.ActiveAt(now) {
		return Outcome{}
	}
	m.log.Info("Boost expired", "boost_id", m.state.ActiveBoost.ID)
	m.state.ActiveBoost = nil
	return Outcome{
		Changed: true,
		Refetch: true,
		Resync:  true,
		Notice:  &domain.Notice{Kind: domain.NoticeBoostExpired},
	}
}

// Apply applies one bus event in delivery order.
func (m *Machine) Apply(evt event.Event, now time.Time) Outcome {
	if m.phase == domain.Closed || m.phase == domain.Uninitialized {
		return Outcome{}
	}
	switch evt.Type {
	case event.ConnectType:
		return m.onConnect()
	case event.DisconnectType:
		return m.onDisconnect()
	case event.RoomStateType:
		if p, ok := evt.Payload.(event.RoomSnapshot); ok {
			return m.onSnapshot(p)
		}
	case event.TrackAddedType:
		if p, ok := evt.Payload.(event.TrackAdded); ok {
			return m.onTrackAdded(p.Track, now)
		}
	case event.TrackRemovedType:
		if p, ok := evt.Payload.(event.TrackRemoved); ok {
			return m.onTrackRemoved(p.TrackID, now)
		}
	case event.PlayType, event.PauseType:
		if p, ok := evt.Payload.(event.Playback); ok {
			return m.onPlayback(evt.Type == event.PlayType, p)
		}
	case event.NextTrackType:
		if p, ok := evt.Payload.(event.NextTrack); ok {
			return m.onNextTrack(p.Track)
		}
	case event.RoomSettingsUpdatedType:
		if p, ok := evt.Payload.(event.SettingsUpdated); ok {
			at := p.At
			if at.IsZero() {
				at = evt.ReceivedAt
			}
			return m.onSettings(p.Patch, at)
		}
	case event.BoostActivatedType:
		if p, ok := evt.Payload.(event.BoostActivated); ok {
			return m.onBoostActivated(p.Boost)
		}
	case event.BoostExpiredType:
		if p, ok := evt.Payload.(event.BoostExpired); ok {
			return m.onBoostExpired(p.RoomID)
		}
	case event.PlaybackBlockedType:
		if p, ok := evt.Payload.(event.PlaybackBlocked); ok {
			return m.onBlocked(p.Block)
		}
	case event.ErrorType:
		if p, ok := evt.Payload.(event.RemoteError); ok {
			return m.onRemoteError(p, now)
		}
	default:
		m.log.Debug("Ignoring unknown event", "type", evt.Type)
		return Outcome{}
	}
	m.log.Error(errors.ErrInvalidPayload.Error(), "type", evt.Type)
	return Outcome{}
}

func (m *Machine) onConnect() Outcome {
	m.state.Connection = domain.Connected
	out := Outcome{Changed: true}
	if m.disconnected {
		// The server lost us; only a new snapshot tells what happened meanwhile.
		m.disconnected = false
		out.Resync = true
	}
	return out
}

// awaitReconnect makes the next connect re-request a snapshot after a join could not be sent.
func (m *Machine) awaitReconnect() {
	m.disconnected = true
}

func (m *Machine) onDisconnect() Outcome {
	m.state.Connection = domain.Disconnected
	m.disconnected = true
	return Outcome{Changed: true}.merge(m.degrade(domain.ReasonBusUnreachable))
}

func (m *Machine) onSnapshot(s event.RoomSnapshot) Outcome {
	if !s.ServerTime.IsZero() && m.lastSnapshot.set && !s.ServerTime.After(m.lastSnapshot.at) {
		m.log.Debug("Dropping out of date snapshot", "server_time", s.ServerTime)
		return Outcome{}
	}
	if !s.ServerTime.IsZero() {
		m.lastSnapshot = stamp{set: true, at: s.ServerTime}
	}

	st := &m.state
	st.CurrentTrack = nil
	if s.CurrentTrack != nil {
		st.CurrentTrack = lo.ToPtr(*s.CurrentTrack)
	}
	st.Queue = normalizeQueue(s.Queue, st.CurrentTrack)
	st.History = lo.UniqBy(s.History, func(t domain.Track) string { return t.ID })
	st.IsPlaying = s.IsPlaying
	st.PositionMs = max(s.PositionMs, 0)
	st.DurationMs = s.DurationMs
	if st.DurationMs == 0 && st.CurrentTrack != nil {
		st.DurationMs = st.CurrentTrack.DurationMs
	}
	st.Users = m.withViewerRole(s.Users, s.IsOwner, s.IsAdmin)
	if s.CreatorID != "" {
		st.CreatorID = s.CreatorID
	}
	if s.ActiveBoost != nil {
		st.ActiveBoost = lo.ToPtr(*s.ActiveBoost)
	} else {
		st.ActiveBoost = nil
	}
	m.boostFromBus = true
	if s.Settings != nil && m.settings.busMayWrite(s.ServerTime) {
		st.Settings = *s.Settings
		m.settings = stamp{set: true, at: s.ServerTime, bus: true}
	}
	if s.TierSettings != nil && m.policy.busMayWrite(s.ServerTime) {
		st.TierPolicy = *s.TierSettings
		m.policy = stamp{set: true, at: s.ServerTime, bus: true}
	}
	st.Stale = false
	st.Connection = domain.Connected

	// The snapshot is authoritative for the queue; local tombstones no longer apply.
	clear(m.tombstones)

	out := Outcome{Changed: true}
	if st.Blocked != nil {
		st.Blocked = nil
		out.Notice = &domain.Notice{Kind: domain.NoticeBlockLifted}
	}
	if m.phase != domain.Live {
		m.log.Info("Room session live", "from", m.phase)
	}
	m.phase = domain.Live
	m.reason = domain.NoReason
	m.snapshotSeen = true
	return out
}

func (m *Machine) withViewerRole(users []domain.RoomUser, isOwner, isAdmin bool) []domain.RoomUser {
	out := lo.UniqBy(users, func(u domain.RoomUser) string { return u.UserID })
	for i := range out {
		if out[i].UserID == m.userID {
			out[i].IsOwner = out[i].IsOwner || isOwner
			out[i].IsAdmin = out[i].IsAdmin || isAdmin
			return out
		}
	}
	if m.userID != "" && (isOwner || isAdmin) {
		out = append(out, domain.RoomUser{UserID: m.userID, IsOwner: isOwner, IsAdmin: isAdmin})
	}
	return out
}

// normalizeQueue enforces unique ids and keeps the current track out of the queue.
func normalizeQueue(queue []domain.Track, current *domain.Track) []domain.Track {
	q := lo.UniqBy(queue, func(t domain.Track) string { return t.ID })
	if current == nil {
		return q
	}
	return lo.Filter(q, func(t domain.Track, _ int) bool { return t.ID != current.ID })
}

func (m *Machine) pruneTombstones(now time.Time) {
	for id, expiresAt := range m.tombstones {
		if !now.Before(expiresAt) {
			delete(m.tombstones, id)
		}
	}
}

func (m *Machine) onTrackAdded(track domain.Track, now time.Time) Outcome {
	if err := domain.ValidateTrack(track); err != nil {
		m.log.Error("Rejecting added track", "error", err)
		return Outcome{}
	}
	m.pruneTombstones(now)
	if _, ok := m.tombstones[track.ID]; ok {
		// A removal already won; this add was reordered behind it.
		delete(m.tombstones, track.ID)
		m.log.Debug("Suppressed re-add of removed track", "track_id", track.ID)
		return Outcome{}
	}
	if m.state.HasQueued(track.ID) {
		return Outcome{}
	}
	if m.state.CurrentTrack != nil && m.state.CurrentTrack.ID == track.ID {
		return Outcome{}
	}
	m.state.Queue = append(m.state.Queue, track)
	return Outcome{Changed: true}
}

func (m *Machine) onTrackRemoved(trackID string, now time.Time) Outcome {
	if trackID == "" {
		m.log.Error(errors.ErrInvalidPayload.Error(), "type", event.TrackRemovedType)
		return Outcome{}
	}
	m.pruneTombstones(now)
	m.tombstones[trackID] = now.Add(m.tombstoneWindow)
	before := len(m.state.Queue)
	m.state.Queue = lo.Filter(m.state.Queue, func(t domain.Track, _ int) bool { return t.ID != trackID })
	return Outcome{Changed: len(m.state.Queue) != before}
}

func (m *Machine) onPlayback(playing bool, p event.Playback) Outcome {
	m.state.IsPlaying = playing
	if p.PositionMs != nil {
		m.state.PositionMs = max(*p.PositionMs, 0)
	}
	return Outcome{Changed: true}
}

func (m *Machine) onNextTrack(next *domain.Track) Outcome {
	st := &m.state
	if st.CurrentTrack != nil {
		prev := *st.CurrentTrack
		st.History = append([]domain.Track{prev},
			lo.Filter(st.History, func(t domain.Track, _ int) bool { return t.ID != prev.ID })...)
	}
	st.PositionMs = 0
	if next == nil {
		st.CurrentTrack = nil
		st.DurationMs = 0
		st.IsPlaying = false
		return Outcome{Changed: true}
	}
	st.CurrentTrack = lo.ToPtr(*next)
	st.DurationMs = next.DurationMs
	st.IsPlaying = true
	st.Queue = lo.Filter(st.Queue, func(t domain.Track, _ int) bool { return t.ID != next.ID })
	return Outcome{Changed: true}
}

func (m *Machine) onSettings(patch domain.SettingsPatch, at time.Time) Outcome {
	if err := domain.ValidatePatch(patch); err != nil {
		m.log.Error("Rejecting settings update", "error", err)
		return Outcome{}
	}
	m.state.Settings = m.state.Settings.Apply(patch)
	if !m.settings.set || at.After(m.settings.at) {
		m.settings = stamp{set: true, at: at, bus: true}
	}
	return Outcome{Changed: true}
}

func (m *Machine) onBoostActivated(b domain.Boost) Outcome {
	m.state.ActiveBoost = lo.ToPtr(b)
	m.boostFromBus = true
	out := Outcome{Changed: true}
	if m.state.Blocked != nil {
		m.state.Blocked = nil
		out.Notice = &domain.Notice{Kind: domain.NoticeBlockLifted}
	}
	return out
}

func (m *Machine) onBoostExpired(roomID domain.RoomID) Outcome {
	if roomID != "" && roomID != m.state.RoomID {
		return Outcome{}
	}
	m.state.ActiveBoost = nil
	m.boostFromBus = true
	return Outcome{
		Changed: true,
		Refetch: true,
		Resync:  true,
		Notice:  &domain.Notice{Kind: domain.NoticeBoostExpired},
	}
}

func (m *Machine) onBlocked(block domain.PlaybackBlock) Outcome {
	m.state.Blocked = lo.ToPtr(block)
	m.state.IsPlaying = false
	return Outcome{Changed: true, Notice: &domain.Notice{
		Kind:    domain.NoticePlaybackBlocked,
		Err:     errors.ErrPlaybackBlocked,
		Message: block.Reason,
	}}
}

func (m *Machine) onRemoteError(e event.RemoteError, now time.Time) Outcome {
	if e.Blocked {
		return m.onBlocked(domain.PlaybackBlock{Reason: e.Message, BlockedAt: now})
	}
	m.log.Warn("Server rejected an action", "message", e.Message)
	return Outcome{
		Resync: true,
		Notice: &domain.Notice{
			Kind:    domain.NoticeRemoteRejected,
			Err:     fmt.Errorf("%w: %s", errors.ErrRemoteRejected, e.Message),
			Message: e.Message,
		},
	}
}

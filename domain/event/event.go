package event

import (
	"time"

	"room-sync/domain"
)

type Type string

const (
	ConnectType             Type = "connect"
	DisconnectType          Type = "disconnect"
	RoomStateType           Type = "roomState"
	TrackAddedType          Type = "trackAdded"
	TrackRemovedType        Type = "trackRemoved"
	PlayType                Type = "play"
	PauseType               Type = "pause"
	NextTrackType           Type = "nextTrack"
	RoomSettingsUpdatedType Type = "roomSettingsUpdated"
	BoostActivatedType      Type = "boost-activated"
	BoostExpiredType        Type = "boost-expired"
	PlaybackBlockedType     Type = "playback-blocked"
	ErrorType               Type = "error"
)

// Event is a normalized inbound message from the event bus.
// Payload holds the struct matching Type.
type Event struct {
	Type       Type
	Room       domain.RoomID
	Payload    any
	ReceivedAt time.Time
}

func New(t Type, room domain.RoomID, payload any) Event {
	return Event{Type: t, Room: room, Payload: payload, ReceivedAt: time.Now().UTC()}
}

func (e Event) RoomID() domain.RoomID {
	return e.Room
}

type Connected struct{}

type Disconnected struct {
	Reason string
}

// RoomSnapshot is the full room-state message. ServerTime orders it against store reads;
// a zero ServerTime is treated as older than any stamped source.
type RoomSnapshot struct {
	Queue        []domain.Track
	History      []domain.Track
	CurrentTrack *domain.Track
	IsPlaying    bool
	PositionMs   int64
	DurationMs   int64
	Users        []domain.RoomUser
	Settings     *domain.RoomSettings
	IsOwner      bool
	IsAdmin      bool
	TierSettings *domain.TierSettings
	ActiveBoost  *domain.Boost
	CreatorID    string
	ServerTime   time.Time
}

type TrackAdded struct {
	Track domain.Track
}

type TrackRemoved struct {
	TrackID string
}

// Playback is the payload of play and pause. PositionMs is optional.
type Playback struct {
	PositionMs *int64
}

type NextTrack struct {
	Track *domain.Track
}

type SettingsUpdated struct {
	Patch domain.SettingsPatch
	At    time.Time
}

type BoostActivated struct {
	Boost domain.Boost
}

type BoostExpired struct {
	RoomID domain.RoomID
}

type PlaybackBlocked struct {
	Block domain.PlaybackBlock
}

// RemoteError is an error message from the server. Blocked errors halt playback.
type RemoteError struct {
	Message string
	Blocked bool
}

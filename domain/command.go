package domain

import (
	"time"

	"github.com/google/uuid"
)

// CommandType names an intent sent to the event bus. Commands are fire-and-forget:
// the room only changes once a confirming event comes back.
type CommandType string

const (
	JoinRoomCommand           CommandType = "join-room"
	AddTrackCommand           CommandType = "add-track"
	RemoveTrackCommand        CommandType = "remove-track"
	PlayCommand               CommandType = "play"
	PauseCommand              CommandType = "pause"
	NextTrackCommand          CommandType = "next-track"
	UpdateRoomSettingsCommand CommandType = "update-room-settings"
	SyncPositionCommand       CommandType = "sync-position"
)

type Command struct {
	ID       uuid.UUID
	Type     CommandType
	Room     RoomID
	UserID   string
	Payload  any
	IssuedAt time.Time
}

func NewCommand(t CommandType, room RoomID, userID string, payload any) Command {
	return Command{
		ID:       uuid.New(),
		Type:     t,
		Room:     room,
		UserID:   userID,
		Payload:  payload,
		IssuedAt: time.Now().UTC(),
	}
}

func (c Command) RoomID() RoomID {
	return c.Room
}

type JoinRoomPayload struct {
	UserID string `json:"userId"`
}

type AddTrackPayload struct {
	Track Track `json:"track"`
}

type RemoveTrackPayload struct {
	TrackID string `json:"trackId"`
}

type SyncPositionPayload struct {
	PositionMs int64 `json:"position"`
	IsPlaying  bool  `json:"isPlaying"`
}

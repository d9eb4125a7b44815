package socket

import (
	"encoding/json"
	"fmt"
	"time"

	"room-sync/domain"
	"room-sync/domain/event"
	"room-sync/errors"

	"github.com/google/uuid"
)

// Envelope is one websocket text frame in either direction.
type Envelope struct {
	ID       string          `json:"id,omitempty"`
	Type     string          `json:"type"`
	RoomID   domain.RoomID   `json:"roomId"`
	UserID   string          `json:"userId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	IssuedAt *time.Time      `json:"issuedAt,omitempty"`
}

type wireSnapshot struct {
	Queue        []domain.Track       `json:"queue"`
	History      []domain.Track       `json:"history"`
	CurrentTrack *domain.Track        `json:"currentTrack"`
	IsPlaying    bool                 `json:"isPlaying"`
	PositionMs   int64                `json:"position"`
	DurationMs   int64                `json:"duration"`
	Users        []domain.RoomUser    `json:"users"`
	Settings     *domain.RoomSettings `json:"settings"`
	IsOwner      bool                 `json:"isOwner"`
	IsAdmin      bool                 `json:"isAdmin"`
	TierSettings *domain.TierSettings `json:"tierSettings"`
	ActiveBoost  *domain.Boost        `json:"activeBoost"`
	CreatorID    string               `json:"creatorId"`
	ServerTime   time.Time            `json:"serverTime"`
}

type wireTrack struct {
	Track *domain.Track `json:"track"`
}

type wireTrackRemoved struct {
	TrackID string `json:"trackId"`
}

type wirePlayback struct {
	PositionMs *int64 `json:"position"`
}

type wireSettings struct {
	Settings  domain.SettingsPatch `json:"settings"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

type wireBoostExpired struct {
	RoomID domain.RoomID `json:"roomId"`
}

type wireError struct {
	Message string `json:"message"`
	Blocked bool   `json:"blocked"`
}

// Decode turns an inbound frame into an event. Malformed payloads wrap ErrInvalidPayload;
// types the client does not know wrap ErrUnknownEvent.
func Decode(data []byte) (event.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return event.Event{}, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	payload, err := decodePayload(event.Type(env.Type), env.Payload)
	if err != nil {
		return event.Event{}, err
	}
	return event.New(event.Type(env.Type), env.RoomID, payload), nil
}

func decodePayload(t event.Type, raw json.RawMessage) (any, error) {
	switch t {
	case event.ConnectType:
		return event.Connected{}, nil
	case event.DisconnectType:
		var p struct {
			Reason string `json:"reason"`
		}
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return event.Disconnected{Reason: p.Reason}, nil
	case event.RoomStateType:
		var p wireSnapshot
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return event.RoomSnapshot{
			Queue:        p.Queue,
			History:      p.History,
			CurrentTrack: p.CurrentTrack,
			IsPlaying:    p.IsPlaying,
			PositionMs:   p.PositionMs,
			DurationMs:   p.DurationMs,
			Users:        p.Users,
			Settings:     p.Settings,
			IsOwner:      p.IsOwner,
			IsAdmin:      p.IsAdmin,
			TierSettings: p.TierSettings,
			ActiveBoost:  p.ActiveBoost,
			CreatorID:    p.CreatorID,
			ServerTime:   p.ServerTime,
		}, nil
	case event.TrackAddedType:
		var p wireTrack
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.Track == nil {
			return nil, fmt.Errorf("%w: trackAdded without track", errors.ErrInvalidPayload)
		}
		return event.TrackAdded{Track: *p.Track}, nil
	case event.TrackRemovedType:
		var p wireTrackRemoved
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return event.TrackRemoved{TrackID: p.TrackID}, nil
	case event.PlayType, event.PauseType:
		var p wirePlayback
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return event.Playback{PositionMs: p.PositionMs}, nil
	case event.NextTrackType:
		var p wireTrack
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return event.NextTrack{Track: p.Track}, nil
	case event.RoomSettingsUpdatedType:
		var p wireSettings
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return event.SettingsUpdated{Patch: p.Settings, At: p.UpdatedAt}, nil
	case event.BoostActivatedType:
		var p domain.Boost
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return event.BoostActivated{Boost: p}, nil
	case event.BoostExpiredType:
		var p wireBoostExpired
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return event.BoostExpired{RoomID: p.RoomID}, nil
	case event.PlaybackBlockedType:
		var p domain.PlaybackBlock
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return event.PlaybackBlocked{Block: p}, nil
	case event.ErrorType:
		var p wireError
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return event.RemoteError{Message: p.Message, Blocked: p.Blocked}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, t)
	}
}

// unmarshal accepts an absent payload as the zero value.
func unmarshal(raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return nil
}

// Encode turns a command into an outbound frame.
func Encode(cmd domain.Command) ([]byte, error) {
	env := Envelope{
		ID:       cmd.ID.String(),
		Type:     string(cmd.Type),
		RoomID:   cmd.Room,
		UserID:   cmd.UserID,
		IssuedAt: &cmd.IssuedAt,
	}
	if cmd.ID == uuid.Nil {
		env.ID = uuid.NewString()
	}
	if cmd.Payload != nil {
		raw, err := json.Marshal(cmd.Payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

package domain

import (
	"fmt"

	"room-sync/errors"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const MaxDJPlayers = 4

var validate = validator.New()

type RoomSettings struct {
	IsPrivate              bool     `json:"isPrivate"`
	AllowControls          bool     `json:"allowControls"`
	AllowQueue             bool     `json:"allowQueue"`
	AllowQueueRemoval      bool     `json:"allowQueueRemoval"`
	AllowPlaylistAdditions bool     `json:"allowPlaylistAdditions"`
	SessionEnabled         bool     `json:"sessionEnabled"`
	Autoplay               bool     `json:"autoplay"`
	DJMode                 bool     `json:"djMode"`
	DJPlayers              int      `json:"djPlayers" validate:"gte=0,lte=4"`
	Admins                 []string `json:"admins" validate:"dive,required"`
}

// SettingsPatch carries a partial settings update. Nil fields are left untouched.
type SettingsPatch struct {
	IsPrivate              *bool    `json:"isPrivate,omitempty"`
	AllowControls          *bool    `json:"allowControls,omitempty"`
	AllowQueue             *bool    `json:"allowQueue,omitempty"`
	AllowQueueRemoval      *bool    `json:"allowQueueRemoval,omitempty"`
	AllowPlaylistAdditions *bool    `json:"allowPlaylistAdditions,omitempty"`
	SessionEnabled         *bool    `json:"sessionEnabled,omitempty"`
	Autoplay               *bool    `json:"autoplay,omitempty"`
	DJMode                 *bool    `json:"djMode,omitempty"`
	DJPlayers              *int     `json:"djPlayers,omitempty" validate:"omitempty,gte=0,lte=4"`
	Admins                 []string `json:"admins,omitempty" validate:"omitempty,dive,required"`
}

// Apply returns a copy of s with the patch applied.
func (s RoomSettings) Apply(p SettingsPatch) RoomSettings {
	out := s
	assign(&out.IsPrivate, p.IsPrivate)
	assign(&out.AllowControls, p.AllowControls)
	assign(&out.AllowQueue, p.AllowQueue)
	assign(&out.AllowQueueRemoval, p.AllowQueueRemoval)
	assign(&out.AllowPlaylistAdditions, p.AllowPlaylistAdditions)
	assign(&out.SessionEnabled, p.SessionEnabled)
	assign(&out.Autoplay, p.Autoplay)
	assign(&out.DJMode, p.DJMode)
	assign(&out.DJPlayers, p.DJPlayers)
	if p.Admins != nil {
		out.Admins = lo.Uniq(p.Admins)
	}
	return out
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func ValidateSettings(s RoomSettings) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidSettings, err)
	}
	return nil
}

func ValidatePatch(p SettingsPatch) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidSettings, err)
	}
	return nil
}

func ValidateTrack(t Track) error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return nil
}

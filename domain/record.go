package domain

import "time"

// RoomRecord is the persisted row of a room as the store reader sees it.
type RoomRecord struct {
	RoomID      RoomID       `json:"roomId"`
	CreatorID   string       `json:"creatorId"`
	CreatorTier Tier         `json:"creatorTier"`
	Settings    RoomSettings `json:"settings"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

package domain

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

type RoomID string

type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (c ConnectionState) String() string {
	switch c {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

type Track struct {
	ID           string    `json:"id" validate:"required"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	URL          string    `json:"url,omitempty"`
	DurationMs   int64     `json:"duration" validate:"gte=0"`
	AddedBy      string    `json:"addedBy,omitempty"`
	AddedAt      time.Time `json:"addedAt,omitempty"`
	BPM          *float64  `json:"bpm,omitempty" validate:"omitempty,gt=0"`
	BeatOffsetMs int64     `json:"beatOffset,omitempty" validate:"gte=0"`
}

type Profile struct {
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type RoomUser struct {
	UserID  string   `json:"userId"`
	Profile *Profile `json:"profile,omitempty"`
	IsOwner bool     `json:"isOwner"`
	IsAdmin bool     `json:"isAdmin"`
}

// PlaybackBlock is set when the server halts playback for a tier limit.
// Only the server lifts it.
type PlaybackBlock struct {
	Reason      string    `json:"reason"`
	BlockedAt   time.Time `json:"blockedAt"`
	SongsPlayed int       `json:"songsPlayed"`
	UserID      string    `json:"userId"`
	IsOwner     bool      `json:"isOwner"`
}

// RoomState is the canonical view of a joined room.
// It is written by a single session and handed to everyone else as a copy.
type RoomState struct {
	RoomID       RoomID
	CreatorID    string
	Queue        []Track
	History      []Track
	CurrentTrack *Track
	IsPlaying    bool
	PositionMs   int64
	DurationMs   int64
	Users        []RoomUser
	Settings     RoomSettings
	TierPolicy   TierSettings
	ActiveBoost  *Boost
	Connection   ConnectionState
	Blocked      *PlaybackBlock
	// Stale marks a view built without any realtime snapshot.
	Stale bool
}

func NewRoomState(roomID RoomID) RoomState {
	return RoomState{
		RoomID:     roomID,
		TierPolicy: DefaultTierPolicy(TierFree),
		Connection: Disconnected,
	}
}

// Clone returns a deep copy safe to hand to observers.
func (s RoomState) Clone() RoomState {
	c := s
	c.Queue = slices.Clone(s.Queue)
	c.History = slices.Clone(s.History)
	c.Users = slices.Clone(s.Users)
	c.Settings.Admins = slices.Clone(s.Settings.Admins)
	if s.CurrentTrack != nil {
		c.CurrentTrack = lo.ToPtr(*s.CurrentTrack)
	}
	if s.ActiveBoost != nil {
		c.ActiveBoost = lo.ToPtr(*s.ActiveBoost)
	}
	if s.Blocked != nil {
		c.Blocked = lo.ToPtr(*s.Blocked)
	}
	if s.TierPolicy.QueueLimit != nil {
		c.TierPolicy.QueueLimit = lo.ToPtr(*s.TierPolicy.QueueLimit)
	}
	return c
}

func (s RoomState) HasQueued(trackID string) bool {
	return lo.ContainsBy(s.Queue, func(t Track) bool { return t.ID == trackID })
}

func (s RoomState) QueuedTrack(trackID string) (Track, bool) {
	return lo.Find(s.Queue, func(t Track) bool { return t.ID == trackID })
}

// User resolves a member and folds the creator id and the settings admin list into its role.
// Unknown users are returned with no role and false.
func (s RoomState) User(userID string) (RoomUser, bool) {
	user, ok := lo.Find(s.Users, func(u RoomUser) bool { return u.UserID == userID })
	if !ok {
		user = RoomUser{UserID: userID}
	}
	if userID != "" && userID == s.CreatorID {
		user.IsOwner = true
	}
	if lo.Contains(s.Settings.Admins, userID) {
		user.IsAdmin = true
	}
	return user, ok
}

// IsBoosted reports whether a boost is running at now. Expiry is time-checked.
func (s RoomState) IsBoosted(now time.Time) bool {
	return s.ActiveBoost.ActiveAt(now)
}

// EffectivePolicy is the policy admission decisions are taken with at now.
func (s RoomState) EffectivePolicy(now time.Time) TierSettings {
	return ResolvePolicy(s.TierPolicy, s.IsBoosted(now), s.Stale)
}

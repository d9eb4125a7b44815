package admission

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"room-sync/domain"
	"room-sync/errors"
)

type BoostStatus int

const (
	NoBoost BoostStatus = iota
	BoostActive
	BoostExpired
)

func (s BoostStatus) String() string {
	switch s {
	case BoostActive:
		return "active"
	case BoostExpired:
		return "expired"
	default:
		return "none"
	}
}

// Advance tells the caller what to do with the track that just started.
type Advance struct {
	// ShowAd pauses playback until the ad is dismissed.
	ShowAd bool
}

// Gate is the admission control of one room.
// It reads RoomState copies and never writes them. Its own state is the ad cadence
// and the last server block it was told about.
// Gate is safe for concurrent use.
type Gate struct {
	log *slog.Logger
	now func() time.Time

	mu           sync.Mutex
	songsSinceAd int
	adPending    bool
	lastBoostID  string
	block        *domain.PlaybackBlock
}

func NewGate(log *slog.Logger) *Gate {
	return &Gate{log: log, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

func (g *Gate) decide(action Action, state domain.RoomState, userID string) Decision {
	return Decide(InputFor(action, state, userID, g.now()))
}

// CanQueue returns ErrPermissionDenied or ErrQuotaExceeded, never one for the other.
func (g *Gate) CanQueue(state domain.RoomState, userID string) error {
	return g.decide(Queue, state, userID).Err
}

func (g *Gate) CanControlPlayback(state domain.RoomState, userID string) error {
	return g.decide(ControlPlayback, state, userID).Err
}

func (g *Gate) CanRemove(state domain.RoomState, userID string, track domain.Track) error {
	in := InputFor(Remove, state, userID, g.now())
	in.TrackAddedBy = track.AddedBy
	return Decide(in).Err
}

// CanResume is CanControlPlayback plus the server block and a running ad break.
// A block counts whether it is seen in state or was recorded by OnPlaybackBlocked.
func (g *Gate) CanResume(state domain.RoomState, userID string) error {
	g.mu.Lock()
	pending, block := g.adPending, g.block
	g.mu.Unlock()

	in := InputFor(Resume, state, userID, g.now())
	in.AdPending = pending
	in.Blocked = in.Blocked || block != nil
	err := Decide(in).Err
	if errors.Is(err, errors.ErrPlaybackBlocked) {
		if block == nil {
			block = state.Blocked
		}
		return blockError(*block)
	}
	return err
}

// OnTrackAdvance counts the new track and decides whether an ad plays first.
// While a boost runs, the cadence is left untouched.
func (g *Gate) OnTrackAdvance(state domain.RoomState) Advance {
	g.mu.Lock()
	defer g.mu.Unlock()

	in := InputFor(AdvanceTrack, state, "", g.now())
	if in.Boosted {
		return Advance{}
	}
	g.songsSinceAd++
	in.SongsSinceAd = g.songsSinceAd

	d := Decide(in)
	if !d.ShowAd {
		return Advance{}
	}
	g.songsSinceAd = 0
	g.adPending = true
	g.log.Debug("Ad break scheduled", "tier", d.Policy.Tier)
	return Advance{ShowAd: true}
}

// DismissAd ends the ad break. It reports whether playback may resume on its own;
// a server block keeps it paused.
func (g *Gate) DismissAd(state domain.RoomState) (resume bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.adPending {
		return false
	}
	g.adPending = false
	return state.Blocked == nil && g.block == nil
}

func (g *Gate) AdPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.adPending
}

func (g *Gate) SongsSinceAd() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.songsSinceAd
}

// EvaluateBoostExpiry reports BoostExpired once per boost whose time has passed.
// The caller then refetches canonical state; a block stays until the server lifts it.
func (g *Gate) EvaluateBoostExpiry(state domain.RoomState, now time.Time) BoostStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := state.ActiveBoost
	if b == nil {
		return NoBoost
	}
	if b.ActiveAt(now) {
		return BoostActive
	}
	if g.lastBoostID == b.ID {
		return NoBoost
	}
	g.lastBoostID = b.ID
	g.log.Info("Boost time elapsed", "boost_id", b.ID, "blocked", state.Blocked != nil)
	return BoostExpired
}

// OnPlaybackBlocked records a server block. It cannot be overridden locally:
// resume is refused until LiftBlock, which only follows a server update.
func (g *Gate) OnPlaybackBlocked(block domain.PlaybackBlock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.block = &block
	g.log.Warn("Playback blocked by server", "reason", block.Reason, "songs_played", block.SongsPlayed, "user_id", block.UserID)
}

// LiftBlock forgets the recorded block. It reports whether there was one.
func (g *Gate) LiftBlock() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.block == nil {
		return false
	}
	g.block = nil
	return true
}

// Blocked returns the recorded block as an error, nil when playback is free.
func (g *Gate) Blocked() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.block == nil {
		return nil
	}
	return blockError(*g.block)
}

func blockError(block domain.PlaybackBlock) error {
	if block.Reason == "" {
		return errors.ErrPlaybackBlocked
	}
	return fmt.Errorf("%w: %s", errors.ErrPlaybackBlocked, block.Reason)
}

// Package admission decides which room actions are allowed and when ads interrupt playback.
//
// Quota and ad decisions use the room creator's tier, modified by an active boost.
// Permissions to queue, control or remove use the room flags and the acting user's role.
package admission

import (
	"fmt"
	"time"

	"room-sync/domain"
	"room-sync/errors"
)

type Action int

const (
	Queue Action = iota
	ControlPlayback
	Remove
	Resume
	AdvanceTrack
)

func (a Action) String() string {
	switch a {
	case Queue:
		return "queue"
	case ControlPlayback:
		return "control-playback"
	case Remove:
		return "remove"
	case Resume:
		return "resume"
	case AdvanceTrack:
		return "advance"
	default:
		return "unknown"
	}
}

// PolicyInput is everything a decision depends on.
type PolicyInput struct {
	Action Action

	// Policy is the tier policy of the room creator, before boost.
	Policy   domain.TierSettings
	Boosted  bool
	Stale    bool
	Blocked  bool
	Settings domain.RoomSettings

	UserID  string
	IsOwner bool
	IsAdmin bool

	QueueLen     int
	TrackAddedBy string

	SongsSinceAd int
	AdPending    bool
}

type Decision struct {
	Err    error
	ShowAd bool
	// Policy is the effective policy the decision was taken with.
	Policy domain.TierSettings
}

func (d Decision) Allowed() bool {
	return d.Err == nil
}

// InputFor builds the input of an action for userID from a state copy.
func InputFor(action Action, state domain.RoomState, userID string, now time.Time) PolicyInput {
	user, _ := state.User(userID)
	return PolicyInput{
		Action:   action,
		Policy:   state.TierPolicy,
		Boosted:  state.IsBoosted(now),
		Stale:    state.Stale,
		Blocked:  state.Blocked != nil,
		Settings: state.Settings,
		UserID:   userID,
		IsOwner:  user.IsOwner,
		IsAdmin:  user.IsAdmin,
		QueueLen: len(state.Queue),
	}
}

// EffectivePolicy is the policy a decision on in is taken with.
func EffectivePolicy(in PolicyInput) domain.TierSettings {
	return domain.ResolvePolicy(in.Policy, in.Boosted, in.Stale)
}

// adThreshold is the number of advanced tracks that triggers an ad. Zero means never.
func adThreshold(p domain.TierSettings) int {
	if !p.AdsEnabled {
		return 0
	}
	switch p.Tier {
	case domain.TierPro:
		return 0
	case domain.TierRookie, domain.TierStandard:
		return 2
	default:
		return 1
	}
}

func (in PolicyInput) privileged() bool {
	return in.IsOwner || in.IsAdmin
}

// Decide is a pure function of its input.
// For AdvanceTrack, SongsSinceAd must already count the track being advanced to.
func Decide(in PolicyInput) Decision {
	policy := EffectivePolicy(in)
	d := Decision{Policy: policy}

	switch in.Action {
	case Queue:
		if !in.privileged() && !in.Settings.AllowQueue {
			d.Err = fmt.Errorf("%w: queueing is restricted to the owner and admins", errors.ErrPermissionDenied)
		} else if !policy.Allows(in.QueueLen) {
			d.Err = fmt.Errorf("%w: %d of %d tracks", errors.ErrQuotaExceeded, in.QueueLen, *policy.QueueLimit)
		}
	case ControlPlayback:
		if !in.privileged() && !in.Settings.AllowControls {
			d.Err = fmt.Errorf("%w: playback controls are restricted", errors.ErrPermissionDenied)
		}
	case Remove:
		if !in.privileged() && !in.Settings.AllowQueueRemoval && (in.UserID == "" || in.TrackAddedBy != in.UserID) {
			d.Err = fmt.Errorf("%w: only the owner, admins or the track author can remove it", errors.ErrPermissionDenied)
		}
	case Resume:
		switch {
		case !in.privileged() && !in.Settings.AllowControls:
			d.Err = fmt.Errorf("%w: playback controls are restricted", errors.ErrPermissionDenied)
		case in.Blocked:
			d.Err = errors.ErrPlaybackBlocked
		case in.AdPending:
			d.Err = errors.ErrAdPending
		}
	case AdvanceTrack:
		threshold := adThreshold(policy)
		d.ShowAd = threshold > 0 && in.SongsSinceAd >= threshold
	default:
		d.Err = fmt.Errorf("%w: unknown action %d", errors.ErrPermissionDenied, in.Action)
	}
	return d
}

package admission

import (
	"testing"

	"room-sync/domain"
	"room-sync/errors"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestDecide_Queue(t *testing.T) {
	limited := domain.TierSettings{Tier: domain.TierFree, QueueLimit: lo.ToPtr(3), AdsEnabled: true}

	cases := []struct {
		name string
		in   PolicyInput
		want error
	}{
		{
			name: "member with allowQueue under limit",
			in:   PolicyInput{Policy: limited, Settings: domain.RoomSettings{AllowQueue: true}, QueueLen: 2},
		},
		{
			name: "member without allowQueue",
			in:   PolicyInput{Policy: limited, QueueLen: 0},
			want: errors.ErrPermissionDenied,
		},
		{
			name: "permission is checked before quota",
			in:   PolicyInput{Policy: limited, QueueLen: 3},
			want: errors.ErrPermissionDenied,
		},
		{
			name: "owner at the limit",
			in:   PolicyInput{Policy: limited, IsOwner: true, QueueLen: 3},
			want: errors.ErrQuotaExceeded,
		},
		{
			name: "admin at the limit",
			in:   PolicyInput{Policy: limited, IsAdmin: true, QueueLen: 3},
			want: errors.ErrQuotaExceeded,
		},
		{
			name: "boost lifts the limit",
			in:   PolicyInput{Policy: limited, IsOwner: true, Boosted: true, QueueLen: 300},
		},
		{
			name: "unlimited tier",
			in:   PolicyInput{Policy: domain.DefaultTierPolicy(domain.TierPro), IsOwner: true, QueueLen: 10_000},
		},
		{
			name: "stale view falls back to free limits",
			in:   PolicyInput{Policy: domain.DefaultTierPolicy(domain.TierPro), IsOwner: true, Stale: true, QueueLen: 10},
			want: errors.ErrQuotaExceeded,
		},
		{
			name: "boost honoured on a stale view",
			in:   PolicyInput{Policy: limited, IsOwner: true, Stale: true, Boosted: true, QueueLen: 3},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			tc.in.Action = Queue
			d := Decide(tc.in)
			if tc.want == nil {
				req.NoError(d.Err)
				req.True(d.Allowed())
				return
			}
			req.ErrorIs(d.Err, tc.want)
		})
	}
}

func TestDecide_QuotaAndPermissionNeverConflated(t *testing.T) {
	req := require.New(t)
	policy := domain.TierSettings{Tier: domain.TierFree, QueueLimit: lo.ToPtr(1)}

	full := Decide(PolicyInput{Action: Queue, Policy: policy, IsOwner: true, QueueLen: 1})
	req.ErrorIs(full.Err, errors.ErrQuotaExceeded)
	req.NotErrorIs(full.Err, errors.ErrPermissionDenied)

	denied := Decide(PolicyInput{Action: Queue, Policy: policy, QueueLen: 0})
	req.ErrorIs(denied.Err, errors.ErrPermissionDenied)
	req.NotErrorIs(denied.Err, errors.ErrQuotaExceeded)
}

func TestDecide_ControlAndRemove(t *testing.T) {
	req := require.New(t)

	req.ErrorIs(Decide(PolicyInput{Action: ControlPlayback}).Err, errors.ErrPermissionDenied)
	req.NoError(Decide(PolicyInput{Action: ControlPlayback, Settings: domain.RoomSettings{AllowControls: true}}).Err)
	req.NoError(Decide(PolicyInput{Action: ControlPlayback, IsAdmin: true}).Err)

	req.ErrorIs(Decide(PolicyInput{Action: Remove, UserID: "bob", TrackAddedBy: "carol"}).Err, errors.ErrPermissionDenied)
	req.NoError(Decide(PolicyInput{Action: Remove, UserID: "bob", TrackAddedBy: "bob"}).Err)
	req.NoError(Decide(PolicyInput{Action: Remove, UserID: "bob", Settings: domain.RoomSettings{AllowQueueRemoval: true}}).Err)
	req.NoError(Decide(PolicyInput{Action: Remove, IsOwner: true}).Err)
	// An anonymous user never matches an anonymous author
	req.ErrorIs(Decide(PolicyInput{Action: Remove}).Err, errors.ErrPermissionDenied)
}

func TestDecide_Resume(t *testing.T) {
	req := require.New(t)

	req.ErrorIs(Decide(PolicyInput{Action: Resume, IsOwner: true, Blocked: true}).Err, errors.ErrPlaybackBlocked)
	req.ErrorIs(Decide(PolicyInput{Action: Resume, IsOwner: true, AdPending: true}).Err, errors.ErrAdPending)
	req.ErrorIs(Decide(PolicyInput{Action: Resume, Blocked: true}).Err, errors.ErrPermissionDenied)
	req.NoError(Decide(PolicyInput{Action: Resume, IsOwner: true}).Err)
}

func TestDecide_AdvanceThresholds(t *testing.T) {
	cases := []struct {
		tier      domain.Tier
		threshold int
	}{
		{domain.TierFree, 1},
		{domain.TierRookie, 2},
		{domain.TierStandard, 2},
		{domain.TierPro, 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.tier), func(t *testing.T) {
			req := require.New(t)
			for count := 0; count <= 5; count++ {
				d := Decide(PolicyInput{Action: AdvanceTrack, Policy: domain.DefaultTierPolicy(tc.tier), SongsSinceAd: count})
				want := tc.threshold > 0 && count >= tc.threshold
				req.Equal(want, d.ShowAd, "count %d", count)
			}
		})
	}
}

func TestEffectivePolicy_BoostIsHighestTier(t *testing.T) {
	for _, p := range domain.DefaultTierPolicies() {
		t.Run(string(p.Tier), func(t *testing.T) {
			req := require.New(t)
			eff := EffectivePolicy(PolicyInput{Policy: p, Boosted: true})
			req.True(eff.Unlimited())
			req.False(eff.AdsEnabled)
			req.True(eff.DJModeAvailable)
		})
	}
}

func TestEffectivePolicy_StaleIsConservative(t *testing.T) {
	req := require.New(t)

	eff := EffectivePolicy(PolicyInput{Policy: domain.TierSettings{Tier: domain.TierStandard, QueueLimit: lo.ToPtr(4), DJModeAvailable: true}, Stale: true})

	req.Equal(4, *eff.QueueLimit)
	req.True(eff.AdsEnabled)
	req.False(eff.DJModeAvailable)
}

func TestEffectivePolicy_BoostWinsOverStale(t *testing.T) {
	req := require.New(t)
	free := domain.DefaultTierPolicy(domain.TierFree)
	free.QueueLimit = lo.ToPtr(1)

	eff := EffectivePolicy(PolicyInput{Policy: free, Boosted: true, Stale: true})

	req.Equal(domain.HighestTierPolicy(), eff)
	req.NoError(Decide(PolicyInput{Action: Queue, Policy: free, Boosted: true, Stale: true, IsOwner: true, QueueLen: 1}).Err)
}

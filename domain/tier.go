package domain

import (
	"time"

	"github.com/samber/lo"
)

type Tier string

const (
	TierFree     Tier = "free"
	TierRookie   Tier = "rookie"
	TierStandard Tier = "standard"
	TierPro      Tier = "pro"
)

// TierSettings is the policy of the room creator's subscription.
// A nil QueueLimit means unlimited.
type TierSettings struct {
	Tier            Tier `json:"tier"`
	QueueLimit      *int `json:"queueLimit"`
	DJModeAvailable bool `json:"djModeAvailable"`
	AdsEnabled      bool `json:"adsEnabled"`
}

func (t TierSettings) Unlimited() bool {
	return t.QueueLimit == nil
}

// Allows reports whether a queue of the given length can take one more track.
func (t TierSettings) Allows(queueLen int) bool {
	return t.QueueLimit == nil || queueLen < *t.QueueLimit
}

var defaultPolicies = map[Tier]TierSettings{
	TierFree:     {Tier: TierFree, QueueLimit: lo.ToPtr(10), DJModeAvailable: false, AdsEnabled: true},
	TierRookie:   {Tier: TierRookie, QueueLimit: lo.ToPtr(20), DJModeAvailable: false, AdsEnabled: true},
	TierStandard: {Tier: TierStandard, QueueLimit: lo.ToPtr(50), DJModeAvailable: true, AdsEnabled: true},
	TierPro:      {Tier: TierPro, QueueLimit: nil, DJModeAvailable: true, AdsEnabled: false},
}

// DefaultTierPolicy is used when the store has no row for a tier. Unknown tiers fall back to free.
func DefaultTierPolicy(tier Tier) TierSettings {
	p, ok := defaultPolicies[tier]
	if !ok {
		p = defaultPolicies[TierFree]
	}
	if p.QueueLimit != nil {
		p.QueueLimit = lo.ToPtr(*p.QueueLimit)
	}
	return p
}

func DefaultTierPolicies() []TierSettings {
	return []TierSettings{
		DefaultTierPolicy(TierFree),
		DefaultTierPolicy(TierRookie),
		DefaultTierPolicy(TierStandard),
		DefaultTierPolicy(TierPro),
	}
}

func HighestTierPolicy() TierSettings {
	return DefaultTierPolicy(TierPro)
}

// ResolvePolicy returns the policy in force. An unexpired boost wins over everything,
// including a stale view; a stale view without boost gets the most restrictive policy.
func ResolvePolicy(creator TierSettings, boosted, stale bool) TierSettings {
	switch {
	case boosted:
		return HighestTierPolicy()
	case stale:
		return conservative(creator)
	default:
		return creator
	}
}

// conservative is the free policy, with the creator's queue limit when it is lower.
func conservative(p TierSettings) TierSettings {
	free := DefaultTierPolicy(TierFree)
	if p.QueueLimit != nil && *p.QueueLimit < *free.QueueLimit {
		free.QueueLimit = lo.ToPtr(*p.QueueLimit)
	}
	return free
}

type Boost struct {
	ID          string    `json:"id"`
	RoomID      RoomID    `json:"roomId,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
	PurchasedBy string    `json:"purchasedBy"`
}

// ActiveAt is true iff now < ExpiresAt. A nil boost is never active.
func (b *Boost) ActiveAt(now time.Time) bool {
	return b != nil && now.Before(b.ExpiresAt)
}

package model

type TierName string

const (
	TierFresher  TierName = "Fresher"
	TierBrute    TierName = "Brute"
	TierSilver   TierName = "Silver"
	TierGold     TierName = "Gold"
	TierPlatinum TierName = "Platinum"
)

type Tier struct {
	Name           TierName
	MinReferrals   int
	Multiplier     float64
	AdReward       int64
	ReferralReward int64
}

// ApplyMultiplier scales a raw point amount by the tier multiplier,
// flooring to a whole point.
func (t Tier) ApplyMultiplier(raw int64) int64 {
	return int64(float64(raw) * t.Multiplier)
}

// TierCatalog is ordered ascending by MinReferrals; the first entry is the
// base tier with a zero threshold.
type TierCatalog []Tier

func DefaultTierCatalog() TierCatalog {
	return TierCatalog{
		{Name: TierFresher, MinReferrals: 0, Multiplier: 1.0, AdReward: 51, ReferralReward: 1000},
		{Name: TierBrute, MinReferrals: 50, Multiplier: 1.2, AdReward: 74, ReferralReward: 1500},
		{Name: TierSilver, MinReferrals: 150, Multiplier: 1.5, AdReward: 105, ReferralReward: 2000},
		{Name: TierGold, MinReferrals: 300, Multiplier: 2.0, AdReward: 140, ReferralReward: 3000},
		{Name: TierPlatinum, MinReferrals: 500, Multiplier: 3.0, AdReward: 210, ReferralReward: 5000},
	}
}

// Resolve returns the tier with the largest threshold not exceeding the
// referral count.
func (c TierCatalog) Resolve(referrals int) Tier {
	current := c[0]
	for _, t := range c[1:] {
		if t.MinReferrals > referrals {
			break
		}
		current = t
	}
	return current
}

func (c TierCatalog) ByName(name TierName) (Tier, bool) {
	for _, t := range c {
		if t.Name == name {
			return t, true
		}
	}
	return Tier{}, false
}

// Next returns the first tier above the referral count, or false when the
// count already reaches the top tier.
func (c TierCatalog) Next(referrals int) (Tier, bool) {
	for _, t := range c {
		if t.MinReferrals > referrals {
			return t, true
		}
	}
	return Tier{}, false
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RewardKind string

const (
	RewardAdWatch      RewardKind = "ad_watch"
	RewardPremiumAd    RewardKind = "premium_ad"
	RewardWebsiteVisit RewardKind = "website_visit"
	RewardYoutubeWatch RewardKind = "youtube_watch"
	RewardSocial       RewardKind = "social"
	RewardReferral     RewardKind = "referral"
	RewardJoinBonus    RewardKind = "join_bonus"
	RewardBonusCode    RewardKind = "bonus_code"
)

const (
	PremiumAdBasePoints    int64 = 1000
	WebsiteVisitBasePoints int64 = 500
	YoutubeWatchBasePoints int64 = 2000
)

// TaskBase resolves the raw point amount of a task kind before the tier
// multiplier is applied. Ad watches pay by tier, the rest are flat.
func (t Tier) TaskBase(kind RewardKind) (int64, bool) {
	switch kind {
	case RewardAdWatch:
		return t.AdReward, true
	case RewardPremiumAd:
		return PremiumAdBasePoints, true
	case RewardWebsiteVisit:
		return WebsiteVisitBasePoints, true
	case RewardYoutubeWatch:
		return YoutubeWatchBasePoints, true
	default:
		return 0, false
	}
}

var SocialRewardDollars = decimal.NewFromInt(50)

var socialPlatforms = map[string]struct{}{
	"youtube1":  {},
	"youtube2":  {},
	"youtube3":  {},
	"facebook":  {},
	"instagram": {},
	"twitter":   {},
	"telegram":  {},
}

func IsSocialPlatform(platform string) bool {
	_, ok := socialPlatforms[platform]
	return ok
}

type RewardCredit struct {
	ID             uuid.UUID
	UserTelegramID int64
	Kind           RewardKind
	RawPoints      int64
	AwardedPoints  int64
	Multiplier     float64
	BalancePoints  int64
	Replayed       bool
	CreatedAt      time.Time
}

type SocialClaim struct {
	UserTelegramID int64
	Platform       string
	Dollars        decimal.Decimal
	ClaimedAt      time.Time
}

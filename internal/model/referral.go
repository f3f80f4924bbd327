package model

import "time"

type ReferralResult struct {
	ReferrerTelegramID int64
	ReferredTelegramID int64
	CodeUsed           string
	RewardPoints       int64
	JoinBonusPoints    int64
	ReferrerTier       TierName
	TierChanged        bool
	ReferrerReferrals  int
	CreatedAt          time.Time
}

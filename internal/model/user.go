package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const PointsPerDollar int64 = 100_000

var MinWithdrawalAmount = decimal.NewFromInt(1000)

type User struct {
	TelegramID       int64
	Username         string
	FirstName        string
	LastName         string
	PhotoURL         string
	ReferralCode     string
	Points           int64
	SocialDollars    decimal.Decimal
	Tier             TierName
	WalletAddress    *string
	IsAdmin          bool
	AdCount          int
	PremiumAdCount   int
	LastWebsiteVisit *time.Time
	LastYoutubeWatch *time.Time
	Referrals        int
	RegistrationDate time.Time
	AuthDate         time.Time
}

// WithdrawableValue converts the point balance at the fixed exchange rate,
// discarding the sub-dollar remainder, and adds the currency balance on top.
func (u *User) WithdrawableValue() decimal.Decimal {
	return decimal.NewFromInt(u.Points / PointsPerDollar).Add(u.SocialDollars)
}

type UserReferral struct {
	TelegramID int64
	Username   string
	Points     int64
	Tier       TierName
	JoinedAt   time.Time
}

type UserProfile struct {
	User             *User
	Multiplier       float64
	AdReward         int64
	NextTier         *TierName
	NextTierAt       int
	ClaimedPlatforms []string
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BonusCode struct {
	Code    string
	Points  int64
	Dollars decimal.Decimal
	Daily   bool
}

func DefaultBonusCodes() []BonusCode {
	return []BonusCode{
		{Code: "BASER", Points: 2000, Dollars: decimal.Zero, Daily: true},
		{Code: "BOTYZEMAN", Points: 100_000, Dollars: decimal.Zero, Daily: true},
		{Code: "EARNSBOTT", Points: 0, Dollars: decimal.NewFromInt(15), Daily: true},
		{Code: "BONUSBOTTER", Points: 0, Dollars: decimal.NewFromInt(100), Daily: true},
		{Code: "GAINMASTER", Points: 50_000, Dollars: decimal.NewFromInt(100), Daily: true},
	}
}

type BonusGrant struct {
	Code           string
	Points         int64
	Dollars        decimal.Decimal
	BalancePoints  int64
	BalanceDollars decimal.Decimal
	RedeemedAt     time.Time
}

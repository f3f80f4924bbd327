package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusPaid     WithdrawalStatus = "paid"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

type Withdrawal struct {
	ID             uuid.UUID
	UserTelegramID int64
	Amount         decimal.Decimal
	WalletAddress  string
	Status         WithdrawalStatus
	CreatedAt      time.Time
}

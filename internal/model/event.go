package model

const (
	EventBalanceUpdate      = "balance_update"
	EventTierUp             = "tier_up"
	EventReferralApplied    = "referral_applied"
	EventWithdrawalPending  = "withdrawal_pending"
	EventWithdrawalReviewed = "withdrawal_reviewed"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCode          = errors.New("code could not be resolved")
	ErrSelfReferral         = errors.New("own referral code cannot be used")
	ErrAlreadyReferred      = errors.New("a referral was already recorded for this user")
	ErrAlreadyClaimed       = errors.New("reward already claimed for this platform")
	ErrAlreadyRedeemed      = errors.New("bonus code already redeemed")
	ErrTaskLimitReached     = errors.New("task is not available again yet")
	ErrUnknownTaskType      = errors.New("unknown task type")
	ErrUnknownPlatform      = errors.New("unknown social platform")
	ErrWalletNotSet         = errors.New("wallet address is not set")
	ErrInsufficientBalance  = errors.New("balance is below the withdrawal minimum")
	ErrInvalidWalletAddress = errors.New("wallet address is empty")
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrWithdrawalFinalized  = errors.New("withdrawal already finalized")
	ErrInvalidStatus        = errors.New("invalid withdrawal status")
)

type Service struct {
	*UserService
	*RewardService
	*ReferralService
	*BonusService
	*WithdrawalService
}

func NewService(
	userService *UserService,
	rewardService *RewardService,
	referralService *ReferralService,
	bonusService *BonusService,
	withdrawalService *WithdrawalService,
) *Service {
	return &Service{
		UserService:       userService,
		RewardService:     rewardService,
		ReferralService:   referralService,
		BonusService:      bonusService,
		WithdrawalService: withdrawalService,
	}
}

type UserServiceI interface {
	GetOrCreateUser(ctx context.Context, data *model.User) (*model.User, bool, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserProfile(ctx context.Context, telegramID int64) (*model.UserProfile, error)
	SetWalletAddress(ctx context.Context, telegramID int64, wallet string) error
	GetLeaderboard(ctx context.Context) ([]*model.User, error)
	GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error)
	RelayUserMessage(ctx context.Context, telegramID int64, text string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	UpdateWalletAddress(ctx context.Context, telegramID int64, wallet string) error
	GetTopUsers(ctx context.Context, limit int) ([]*model.User, error)
	GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error)
	GetClaimedPlatforms(ctx context.Context, telegramID int64) ([]string, error)
}

type RewardServiceI interface {
	CompleteTask(ctx context.Context, telegramID int64, kind model.RewardKind, requestKey string) (*model.RewardCredit, error)
	ClaimSocialReward(ctx context.Context, telegramID int64, platform string) (*model.SocialClaim, error)
	GetRewardHistory(ctx context.Context, telegramID int64) ([]*model.RewardCredit, error)
}

type RewardRepository interface {
	CreditTaskReward(ctx context.Context, telegramID int64, kind model.RewardKind, requestKey string) (*model.RewardCredit, error)
	ClaimSocialReward(ctx context.Context, telegramID int64, platform string) (*model.SocialClaim, error)
	GetUserRewardHistory(ctx context.Context, telegramID int64, limit int) ([]*model.RewardCredit, error)
	ResetDailyTaskCounters(ctx context.Context) (int64, error)
	PruneProcessedRequests(ctx context.Context, olderThan time.Duration) (int64, error)
}

type ReferralServiceI interface {
	ApplyReferralCode(ctx context.Context, telegramID int64, code string) (*model.ReferralResult, error)
}

type ReferralRepository interface {
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	RegisterReferral(ctx context.Context, referrerID, referredID int64, code string, joinBonus int64) (*model.ReferralResult, error)
}

type BonusServiceI interface {
	RedeemBonusCode(ctx context.Context, telegramID int64, code string) (*model.BonusGrant, error)
}

type BonusRepository interface {
	RedeemBonusCode(ctx context.Context, telegramID int64, code string) (*model.BonusGrant, error)
}

type WithdrawalServiceI interface {
	RequestWithdrawal(ctx context.Context, telegramID int64) (*model.Withdrawal, error)
	GetUserWithdrawals(ctx context.Context, telegramID int64) ([]*model.Withdrawal, error)
	ListPendingWithdrawals(ctx context.Context) ([]*model.Withdrawal, error)
	ReviewWithdrawal(ctx context.Context, id uuid.UUID, status model.WithdrawalStatus) (*model.Withdrawal, error)
}

type WithdrawalRepository interface {
	CreateWithdrawal(ctx context.Context, telegramID int64) (*model.Withdrawal, error)
	GetUserWithdrawals(ctx context.Context, telegramID int64) ([]*model.Withdrawal, error)
	GetPendingWithdrawals(ctx context.Context) ([]*model.Withdrawal, error)
	UpdateWithdrawalStatus(ctx context.Context, id uuid.UUID, status model.WithdrawalStatus) (*model.Withdrawal, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

// NotificationSink delivers out-of-band messages. Implementations log their
// own failures; a lost notification never affects the ledger mutation that
// triggered it.
type NotificationSink interface {
	WithdrawalRequested(user *model.User, withdrawal *model.Withdrawal)
	WithdrawalReviewed(withdrawal *model.Withdrawal)
	ReferralApplied(result *model.ReferralResult)
	UserMessage(user *model.User, text string)
}

type EventPublisher interface {
	Publish(telegramID int64, event model.Event)
}

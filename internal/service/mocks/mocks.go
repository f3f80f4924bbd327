package mocks

import (
	"context"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateWalletAddress(ctx context.Context, telegramID int64, wallet string) error {
	args := m.Called(ctx, telegramID, wallet)
	return args.Error(0)
}

func (m *MockUserRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferral), args.Error(1)
}

func (m *MockUserRepository) GetClaimedPlatforms(ctx context.Context, telegramID int64) ([]string, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockRewardRepository struct {
	mock.Mock
}

func (m *MockRewardRepository) CreditTaskReward(ctx context.Context, telegramID int64, kind model.RewardKind, requestKey string) (*model.RewardCredit, error) {
	args := m.Called(ctx, telegramID, kind, requestKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RewardCredit), args.Error(1)
}

func (m *MockRewardRepository) ClaimSocialReward(ctx context.Context, telegramID int64, platform string) (*model.SocialClaim, error) {
	args := m.Called(ctx, telegramID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialClaim), args.Error(1)
}

func (m *MockRewardRepository) GetUserRewardHistory(ctx context.Context, telegramID int64, limit int) ([]*model.RewardCredit, error) {
	args := m.Called(ctx, telegramID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.RewardCredit), args.Error(1)
}

func (m *MockRewardRepository) ResetDailyTaskCounters(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRewardRepository) PruneProcessedRequests(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockReferralRepository) RegisterReferral(ctx context.Context, referrerID, referredID int64, code string, joinBonus int64) (*model.ReferralResult, error) {
	args := m.Called(ctx, referrerID, referredID, code, joinBonus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralResult), args.Error(1)
}

type MockBonusRepository struct {
	mock.Mock
}

func (m *MockBonusRepository) RedeemBonusCode(ctx context.Context, telegramID int64, code string) (*model.BonusGrant, error) {
	args := m.Called(ctx, telegramID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BonusGrant), args.Error(1)
}

type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) CreateWithdrawal(ctx context.Context, telegramID int64) (*model.Withdrawal, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) GetUserWithdrawals(ctx context.Context, telegramID int64) ([]*model.Withdrawal, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) GetPendingWithdrawals(ctx context.Context) ([]*model.Withdrawal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) UpdateWithdrawalStatus(ctx context.Context, id uuid.UUID, status model.WithdrawalStatus) (*model.Withdrawal, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockNotificationSink struct {
	mock.Mock
}

func (m *MockNotificationSink) WithdrawalRequested(user *model.User, withdrawal *model.Withdrawal) {
	m.Called(user, withdrawal)
}

func (m *MockNotificationSink) WithdrawalReviewed(withdrawal *model.Withdrawal) {
	m.Called(withdrawal)
}

func (m *MockNotificationSink) ReferralApplied(result *model.ReferralResult) {
	m.Called(result)
}

func (m *MockNotificationSink) UserMessage(user *model.User, text string) {
	m.Called(user, text)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(telegramID int64, event model.Event) {
	m.Called(telegramID, event)
}

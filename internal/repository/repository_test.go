package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RepositoryTestSuite struct {
	suite.Suite
	repo     *Repository
	postgres testcontainers.Container
	ctx      context.Context
}

func (suite *RepositoryTestSuite) SetupSuite() {
	if testing.Short() {
		suite.T().Skip("Skipping integration tests")
	}

	suite.ctx = context.Background()

	ctx, cancel := context.WithTimeout(suite.ctx, 60*time.Second)
	defer cancel()

	postgresContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:16-alpine"),
		tcpostgres.WithDatabase("rewards"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("example"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(suite.T(), err)
	suite.postgres = postgresContainer

	host, err := postgresContainer.Host(ctx)
	require.NoError(suite.T(), err)
	port, err := postgresContainer.MappedPort(ctx, "5432")
	require.NoError(suite.T(), err)

	repo, err := New(Config{
		Host:     host,
		Port:     port.Port(),
		User:     "postgres",
		Password: "example",
		Name:     "rewards",
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), repo.Bootstrap(suite.ctx))
	suite.repo = repo
}

func (suite *RepositoryTestSuite) TearDownSuite() {
	if suite.postgres == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if suite.repo != nil {
		require.NoError(suite.T(), suite.repo.Close())
	}
	require.NoError(suite.T(), suite.postgres.Terminate(ctx))
}

func (suite *RepositoryTestSuite) cleanupData() {
	_, err := suite.repo.db.ExecContext(suite.ctx, "TRUNCATE users, processed_requests CASCADE")
	require.NoError(suite.T(), err)
}

func (suite *RepositoryTestSuite) seedUser(telegramID int64, code string) *model.User {
	now := time.Now().UTC()
	user := &model.User{
		TelegramID:       telegramID,
		Username:         fmt.Sprintf("user%d", telegramID),
		SocialDollars:    decimal.Zero,
		ReferralCode:     code,
		Tier:             model.TierFresher,
		RegistrationDate: now,
		AuthDate:         now,
	}
	require.NoError(suite.T(), suite.repo.CreateUser(suite.ctx, user))
	return user
}

func (suite *RepositoryTestSuite) setBalances(telegramID int64, points int64, dollars decimal.Decimal) {
	_, err := suite.repo.db.ExecContext(suite.ctx,
		"UPDATE users SET points = $1, social_dollars = $2 WHERE telegram_id = $3",
		points, dollars, telegramID)
	require.NoError(suite.T(), err)
}

func (suite *RepositoryTestSuite) TestBootstrapIsRepeatable() {
	require.NoError(suite.T(), suite.repo.Bootstrap(suite.ctx))

	tiers := suite.repo.Tiers()
	assert.Len(suite.T(), tiers, 5)
	assert.Equal(suite.T(), model.TierFresher, tiers[0].Name)
	assert.Equal(suite.T(), model.TierPlatinum, tiers[len(tiers)-1].Name)
}

func (suite *RepositoryTestSuite) TestCreateAndGetUser() {
	suite.cleanupData()

	created := suite.seedUser(100, "AAAA1111")

	user, err := suite.repo.GetUserByTelegramID(suite.ctx, 100)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), created.Username, user.Username)
	assert.Equal(suite.T(), "AAAA1111", user.ReferralCode)
	assert.Equal(suite.T(), model.TierFresher, user.Tier)
	assert.Equal(suite.T(), int64(0), user.Points)
	assert.True(suite.T(), user.SocialDollars.IsZero())
	assert.Equal(suite.T(), 0, user.Referrals)
	assert.False(suite.T(), user.IsAdmin)
	assert.Nil(suite.T(), user.WalletAddress)

	_, err = suite.repo.GetUserByTelegramID(suite.ctx, 999)
	assert.ErrorIs(suite.T(), err, ErrNotFound)

	err = suite.repo.CreateUser(suite.ctx, &model.User{
		TelegramID:       100,
		ReferralCode:     "BBBB2222",
		SocialDollars:    decimal.Zero,
		Tier:             model.TierFresher,
		RegistrationDate: time.Now().UTC(),
		AuthDate:         time.Now().UTC(),
	})
	assert.ErrorIs(suite.T(), err, ErrUserExists)

	err = suite.repo.CreateUser(suite.ctx, &model.User{
		TelegramID:       101,
		ReferralCode:     "AAAA1111",
		SocialDollars:    decimal.Zero,
		Tier:             model.TierFresher,
		RegistrationDate: time.Now().UTC(),
		AuthDate:         time.Now().UTC(),
	})
	assert.ErrorIs(suite.T(), err, ErrReferralCodeTaken)

	byCode, err := suite.repo.GetUserByReferralCode(suite.ctx, "AAAA1111")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(100), byCode.TelegramID)

	_, err = suite.repo.GetUserByReferralCode(suite.ctx, "NOPE0000")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *RepositoryTestSuite) TestUpdateWalletAddress() {
	suite.cleanupData()
	suite.seedUser(110, "WALL1111")

	require.NoError(suite.T(), suite.repo.UpdateWalletAddress(suite.ctx, 110, "TQmvBzYdEWqKwQ5oYxkYAEqZzCcH7rrV4N"))

	user, err := suite.repo.GetUserByTelegramID(suite.ctx, 110)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), user.WalletAddress)
	assert.Equal(suite.T(), "TQmvBzYdEWqKwQ5oYxkYAEqZzCcH7rrV4N", *user.WalletAddress)

	err = suite.repo.UpdateWalletAddress(suite.ctx, 999, "TQmvBzYdEWqKwQ5oYxkYAEqZzCcH7rrV4N")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *RepositoryTestSuite) TestRegisterReferral() {
	suite.cleanupData()

	referrer := suite.seedUser(200, "REFR2000")
	suite.seedUser(201, "REFD2010")
	suite.seedUser(202, "REFD2020")

	result, err := suite.repo.RegisterReferral(suite.ctx, 200, 201, referrer.ReferralCode, 0)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1000), result.RewardPoints)
	assert.Equal(suite.T(), int64(0), result.JoinBonusPoints)
	assert.Equal(suite.T(), 1, result.ReferrerReferrals)
	assert.Equal(suite.T(), model.TierFresher, result.ReferrerTier)
	assert.False(suite.T(), result.TierChanged)

	_, err = suite.repo.RegisterReferral(suite.ctx, 200, 201, referrer.ReferralCode, 0)
	assert.ErrorIs(suite.T(), err, ErrAlreadyReferred)

	result, err = suite.repo.RegisterReferral(suite.ctx, 200, 202, referrer.ReferralCode, 500)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(500), result.JoinBonusPoints)
	assert.Equal(suite.T(), 2, result.ReferrerReferrals)

	updatedReferrer, err := suite.repo.GetUserByTelegramID(suite.ctx, 200)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2000), updatedReferrer.Points)
	assert.Equal(suite.T(), 2, updatedReferrer.Referrals)

	referred, err := suite.repo.GetUserByTelegramID(suite.ctx, 202)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(500), referred.Points)

	_, err = suite.repo.RegisterReferral(suite.ctx, 200, 200, referrer.ReferralCode, 0)
	assert.ErrorIs(suite.T(), err, ErrSelfReferral)

	_, err = suite.repo.RegisterReferral(suite.ctx, 200, 999, referrer.ReferralCode, 0)
	assert.ErrorIs(suite.T(), err, ErrNotFound)

	history, err := suite.repo.GetUserRewardHistory(suite.ctx, 200, 10)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), history, 2)
	assert.Equal(suite.T(), model.RewardReferral, history[0].Kind)

	referrals, err := suite.repo.GetUserReferrals(suite.ctx, 200)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), referrals, 2)
}

// The reward is paid at the tier held when the referral lands; the promotion
// only affects later referrals.
func (suite *RepositoryTestSuite) TestReferralTierPromotion() {
	suite.cleanupData()

	referrer := suite.seedUser(300, "PROM3000")

	var promotion *model.ReferralResult
	for i := 0; i < 50; i++ {
		referredID := int64(301 + i)
		suite.seedUser(referredID, fmt.Sprintf("PROM%04d", i))
		result, err := suite.repo.RegisterReferral(suite.ctx, 300, referredID, referrer.ReferralCode, 0)
		require.NoError(suite.T(), err)
		promotion = result
	}

	assert.Equal(suite.T(), 50, promotion.ReferrerReferrals)
	assert.Equal(suite.T(), model.TierBrute, promotion.ReferrerTier)
	assert.True(suite.T(), promotion.TierChanged)
	assert.Equal(suite.T(), int64(1000), promotion.RewardPoints)

	suite.seedUser(400, "PROM0400")
	afterPromotion, err := suite.repo.RegisterReferral(suite.ctx, 300, 400, referrer.ReferralCode, 0)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1500), afterPromotion.RewardPoints)
	assert.False(suite.T(), afterPromotion.TierChanged)

	user, err := suite.repo.GetUserByTelegramID(suite.ctx, 300)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), model.TierBrute, user.Tier)
	assert.Equal(suite.T(), int64(50*1000+1500), user.Points)
}

func (suite *RepositoryTestSuite) TestCreditTaskReward() {
	suite.cleanupData()
	suite.seedUser(500, "TASK5000")

	credit, err := suite.repo.CreditTaskReward(suite.ctx, 500, model.RewardAdWatch, "")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(51), credit.RawPoints)
	assert.Equal(suite.T(), int64(51), credit.AwardedPoints)
	assert.Equal(suite.T(), 1.0, credit.Multiplier)
	assert.Equal(suite.T(), int64(51), credit.BalancePoints)
	assert.False(suite.T(), credit.Replayed)

	user, err := suite.repo.GetUserByTelegramID(suite.ctx, 500)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, user.AdCount)

	_, err = suite.repo.CreditTaskReward(suite.ctx, 500, model.RewardPremiumAd, "")
	require.NoError(suite.T(), err)
	_, err = suite.repo.CreditTaskReward(suite.ctx, 500, model.RewardPremiumAd, "")
	assert.ErrorIs(suite.T(), err, ErrTaskLimitReached)

	_, err = suite.repo.CreditTaskReward(suite.ctx, 500, model.RewardWebsiteVisit, "")
	require.NoError(suite.T(), err)
	_, err = suite.repo.CreditTaskReward(suite.ctx, 500, model.RewardWebsiteVisit, "")
	assert.ErrorIs(suite.T(), err, ErrTaskLimitReached)

	_, err = suite.repo.CreditTaskReward(suite.ctx, 500, model.RewardSocial, "")
	assert.ErrorIs(suite.T(), err, ErrUnknownRewardKind)

	_, err = suite.repo.CreditTaskReward(suite.ctx, 999, model.RewardAdWatch, "")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *RepositoryTestSuite) TestCreditTaskRewardAppliesMultiplier() {
	suite.cleanupData()
	suite.seedUser(510, "GOLD5100")

	_, err := suite.repo.db.ExecContext(suite.ctx, "UPDATE users SET tier = 'Gold' WHERE telegram_id = 510")
	require.NoError(suite.T(), err)

	credit, err := suite.repo.CreditTaskReward(suite.ctx, 510, model.RewardAdWatch, "")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(140), credit.RawPoints)
	assert.Equal(suite.T(), 2.0, credit.Multiplier)
	assert.Equal(suite.T(), int64(280), credit.AwardedPoints)

	credit, err = suite.repo.CreditTaskReward(suite.ctx, 510, model.RewardYoutubeWatch, "")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2000), credit.RawPoints)
	assert.Equal(suite.T(), int64(4000), credit.AwardedPoints)

	// A fractional product floors to a whole point: 74 x 1.2 pays 88.
	suite.seedUser(511, "BRUT5110")
	_, err = suite.repo.db.ExecContext(suite.ctx, "UPDATE users SET tier = 'Brute' WHERE telegram_id = 511")
	require.NoError(suite.T(), err)

	credit, err = suite.repo.CreditTaskReward(suite.ctx, 511, model.RewardAdWatch, "")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(74), credit.RawPoints)
	assert.Equal(suite.T(), int64(88), credit.AwardedPoints)
}

func (suite *RepositoryTestSuite) TestCreditTaskRewardIdempotency() {
	suite.cleanupData()
	suite.seedUser(520, "IDEM5200")

	credit, err := suite.repo.CreditTaskReward(suite.ctx, 520, model.RewardYoutubeWatch, "req-abc")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), credit.Replayed)
	assert.Equal(suite.T(), int64(2000), credit.AwardedPoints)

	replay, err := suite.repo.CreditTaskReward(suite.ctx, 520, model.RewardYoutubeWatch, "req-abc")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), replay.Replayed)
	assert.Equal(suite.T(), int64(2000), replay.AwardedPoints)
	assert.Equal(suite.T(), model.RewardYoutubeWatch, replay.Kind)

	user, err := suite.repo.GetUserByTelegramID(suite.ctx, 520)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2000), user.Points)

	history, err := suite.repo.GetUserRewardHistory(suite.ctx, 520, 10)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), history, 1)
}

// Concurrent submissions of one request key credit exactly once; every
// caller gets the same credit back, whichever of them won the race.
func (suite *RepositoryTestSuite) TestCreditTaskRewardConcurrentSameKey() {
	suite.cleanupData()
	suite.seedUser(530, "CONC5300")

	const workers = 4

	var wg sync.WaitGroup
	start := make(chan struct{})
	credits := make([]*model.RewardCredit, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			credits[i], errs[i] = suite.repo.CreditTaskReward(suite.ctx, 530, model.RewardYoutubeWatch, "req-race")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(suite.T(), errs[i])
		require.NotNil(suite.T(), credits[i])
		assert.Equal(suite.T(), int64(2000), credits[i].AwardedPoints)
	}

	user, err := suite.repo.GetUserByTelegramID(suite.ctx, 530)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2000), user.Points)

	history, err := suite.repo.GetUserRewardHistory(suite.ctx, 530, 10)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), history, 1)
}

func (suite *RepositoryTestSuite) TestClaimSocialReward() {
	suite.cleanupData()
	suite.seedUser(600, "SOCL6000")

	claim, err := suite.repo.ClaimSocialReward(suite.ctx, 600, "youtube1")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), model.SocialRewardDollars.Equal(claim.Dollars))

	_, err = suite.repo.ClaimSocialReward(suite.ctx, 600, "youtube1")
	assert.ErrorIs(suite.T(), err, ErrAlreadyClaimed)

	_, err = suite.repo.ClaimSocialReward(suite.ctx, 600, "facebook")
	require.NoError(suite.T(), err)

	user, err := suite.repo.GetUserByTelegramID(suite.ctx, 600)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), decimal.NewFromInt(100).Equal(user.SocialDollars))

	platforms, err := suite.repo.GetClaimedPlatforms(suite.ctx, 600)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"youtube1", "facebook"}, platforms)

	_, err = suite.repo.ClaimSocialReward(suite.ctx, 999, "youtube1")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *RepositoryTestSuite) TestRedeemBonusCode() {
	suite.cleanupData()
	suite.seedUser(700, "BONS7000")

	grant, err := suite.repo.RedeemBonusCode(suite.ctx, 700, "BASER")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2000), grant.Points)
	assert.True(suite.T(), grant.Dollars.IsZero())
	assert.Equal(suite.T(), int64(2000), grant.BalancePoints)

	_, err = suite.repo.RedeemBonusCode(suite.ctx, 700, "BASER")
	assert.ErrorIs(suite.T(), err, ErrAlreadyRedeemed)

	// Daily codes reopen on the next UTC day.
	_, err = suite.repo.db.ExecContext(suite.ctx,
		"UPDATE bonus_redemptions SET redeemed_on = redeemed_on - 1 WHERE user_telegram_id = 700 AND code = 'BASER'")
	require.NoError(suite.T(), err)

	grant, err = suite.repo.RedeemBonusCode(suite.ctx, 700, "BASER")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(4000), grant.BalancePoints)

	grant, err = suite.repo.RedeemBonusCode(suite.ctx, 700, "EARNSBOTT")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), grant.Points)
	assert.True(suite.T(), decimal.NewFromInt(15).Equal(grant.Dollars))
	assert.True(suite.T(), decimal.NewFromInt(15).Equal(grant.BalanceDollars))

	_, err = suite.repo.RedeemBonusCode(suite.ctx, 700, "NOSUCHCODE")
	assert.ErrorIs(suite.T(), err, ErrCodeNotFound)

	_, err = suite.repo.RedeemBonusCode(suite.ctx, 999, "BASER")
	assert.ErrorIs(suite.T(), err, ErrNotFound)

	// Only point grants land in the reward history, one per redemption.
	history, err := suite.repo.GetUserRewardHistory(suite.ctx, 700, 10)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), history, 2)
	assert.Equal(suite.T(), model.RewardBonusCode, history[0].Kind)
}

// A code outside the daily set is redeemable once for good; a day rolling
// over does not reopen it.
func (suite *RepositoryTestSuite) TestRedeemBonusCodeNonDaily() {
	suite.cleanupData()
	suite.seedUser(710, "ONCE7100")

	_, err := suite.repo.db.ExecContext(suite.ctx,
		"INSERT INTO bonus_codes (code, points, dollars, daily) VALUES ('WELCOME1', 3000, 0, FALSE) ON CONFLICT (code) DO NOTHING")
	require.NoError(suite.T(), err)

	grant, err := suite.repo.RedeemBonusCode(suite.ctx, 710, "WELCOME1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3000), grant.Points)

	_, err = suite.repo.RedeemBonusCode(suite.ctx, 710, "WELCOME1")
	assert.ErrorIs(suite.T(), err, ErrAlreadyRedeemed)

	_, err = suite.repo.db.ExecContext(suite.ctx,
		"UPDATE bonus_redemptions SET redeemed_on = redeemed_on - 1 WHERE user_telegram_id = 710 AND code = 'WELCOME1'")
	require.NoError(suite.T(), err)

	_, err = suite.repo.RedeemBonusCode(suite.ctx, 710, "WELCOME1")
	assert.ErrorIs(suite.T(), err, ErrAlreadyRedeemed)
}

func (suite *RepositoryTestSuite) TestWithdrawalLifecycle() {
	suite.cleanupData()
	suite.seedUser(800, "WDRW8000")

	_, err := suite.repo.CreateWithdrawal(suite.ctx, 800)
	assert.ErrorIs(suite.T(), err, ErrWalletNotSet)

	require.NoError(suite.T(), suite.repo.UpdateWalletAddress(suite.ctx, 800, "TQmvBzYdEWqKwQ5oYxkYAEqZzCcH7rrV4N"))

	_, err = suite.repo.CreateWithdrawal(suite.ctx, 800)
	assert.ErrorIs(suite.T(), err, ErrInsufficientBalance)

	// 150,000,000 points convert to $1500, plus $250 on the currency balance.
	suite.setBalances(800, 150_000_000, decimal.NewFromInt(250))

	withdrawal, err := suite.repo.CreateWithdrawal(suite.ctx, 800)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), decimal.NewFromInt(1750).Equal(withdrawal.Amount))
	assert.Equal(suite.T(), model.WithdrawalStatusPending, withdrawal.Status)

	user, err := suite.repo.GetUserByTelegramID(suite.ctx, 800)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), user.Points)
	assert.True(suite.T(), user.SocialDollars.IsZero())

	_, err = suite.repo.CreateWithdrawal(suite.ctx, 800)
	assert.ErrorIs(suite.T(), err, ErrInsufficientBalance)

	withdrawals, err := suite.repo.GetUserWithdrawals(suite.ctx, 800)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), withdrawals, 1)
	assert.Equal(suite.T(), withdrawal.ID, withdrawals[0].ID)

	pending, err := suite.repo.GetPendingWithdrawals(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), pending, 1)

	paid, err := suite.repo.UpdateWithdrawalStatus(suite.ctx, withdrawal.ID, model.WithdrawalStatusPaid)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), model.WithdrawalStatusPaid, paid.Status)

	_, err = suite.repo.UpdateWithdrawalStatus(suite.ctx, withdrawal.ID, model.WithdrawalStatusRejected)
	assert.ErrorIs(suite.T(), err, ErrWithdrawalFinalized)

	_, err = suite.repo.UpdateWithdrawalStatus(suite.ctx, uuid.New(), model.WithdrawalStatusPaid)
	assert.ErrorIs(suite.T(), err, ErrNotFound)

	pending, err = suite.repo.GetPendingWithdrawals(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), pending)
}

func (suite *RepositoryTestSuite) TestWithdrawalRejectionRefund() {
	suite.cleanupData()
	suite.seedUser(810, "RFND8100")

	require.NoError(suite.T(), suite.repo.UpdateWalletAddress(suite.ctx, 810, "TQmvBzYdEWqKwQ5oYxkYAEqZzCcH7rrV4N"))
	suite.setBalances(810, 0, decimal.NewFromInt(1200))

	withdrawal, err := suite.repo.CreateWithdrawal(suite.ctx, 810)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), decimal.NewFromInt(1200).Equal(withdrawal.Amount))

	rejected, err := suite.repo.UpdateWithdrawalStatus(suite.ctx, withdrawal.ID, model.WithdrawalStatusRejected)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), model.WithdrawalStatusRejected, rejected.Status)

	user, err := suite.repo.GetUserByTelegramID(suite.ctx, 810)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), user.Points)
	assert.True(suite.T(), decimal.NewFromInt(1200).Equal(user.SocialDollars))
}

// The minimum is inclusive: a balance converting to exactly $1000 clears.
func (suite *RepositoryTestSuite) TestWithdrawalAtExactMinimum() {
	suite.cleanupData()
	suite.seedUser(820, "MINW8200")

	require.NoError(suite.T(), suite.repo.UpdateWalletAddress(suite.ctx, 820, "TQmvBzYdEWqKwQ5oYxkYAEqZzCcH7rrV4N"))
	suite.setBalances(820, 100_000_000, decimal.Zero)

	withdrawal, err := suite.repo.CreateWithdrawal(suite.ctx, 820)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), decimal.NewFromInt(1000).Equal(withdrawal.Amount))

	user, err := suite.repo.GetUserByTelegramID(suite.ctx, 820)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), user.Points)
	assert.True(suite.T(), user.SocialDollars.IsZero())

	// One point short converts below the line and is refused.
	suite.setBalances(820, 99_999_999, decimal.Zero)
	_, err = suite.repo.CreateWithdrawal(suite.ctx, 820)
	assert.ErrorIs(suite.T(), err, ErrInsufficientBalance)
}

func (suite *RepositoryTestSuite) TestResetDailyTaskCounters() {
	suite.cleanupData()
	suite.seedUser(900, "RSET9000")
	suite.seedUser(901, "RSET9010")

	_, err := suite.repo.CreditTaskReward(suite.ctx, 900, model.RewardAdWatch, "")
	require.NoError(suite.T(), err)
	_, err = suite.repo.CreditTaskReward(suite.ctx, 900, model.RewardPremiumAd, "")
	require.NoError(suite.T(), err)
	_, err = suite.repo.CreditTaskReward(suite.ctx, 901, model.RewardAdWatch, "")
	require.NoError(suite.T(), err)

	affected, err := suite.repo.ResetDailyTaskCounters(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), affected)

	user, err := suite.repo.GetUserByTelegramID(suite.ctx, 900)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, user.AdCount)
	assert.Equal(suite.T(), 0, user.PremiumAdCount)

	// The premium slot opens up again after the reset.
	_, err = suite.repo.CreditTaskReward(suite.ctx, 900, model.RewardPremiumAd, "")
	require.NoError(suite.T(), err)

	affected, err = suite.repo.ResetDailyTaskCounters(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), affected)
}

func (suite *RepositoryTestSuite) TestPruneProcessedRequests() {
	suite.cleanupData()
	suite.seedUser(910, "PRUN9100")

	_, err := suite.repo.CreditTaskReward(suite.ctx, 910, model.RewardYoutubeWatch, "req-old")
	require.NoError(suite.T(), err)

	pruned, err := suite.repo.PruneProcessedRequests(suite.ctx, 24*time.Hour)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), pruned)

	_, err = suite.repo.db.ExecContext(suite.ctx,
		"UPDATE processed_requests SET created_at = now() - INTERVAL '25 hours' WHERE request_key = 'req-old'")
	require.NoError(suite.T(), err)

	pruned, err = suite.repo.PruneProcessedRequests(suite.ctx, 24*time.Hour)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), pruned)

	// With the key forgotten the same request credits again.
	credit, err := suite.repo.CreditTaskReward(suite.ctx, 910, model.RewardWebsiteVisit, "req-old")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), credit.Replayed)
}

func (suite *RepositoryTestSuite) TestGetTopUsers() {
	suite.cleanupData()
	suite.seedUser(920, "TOPS9200")
	suite.seedUser(921, "TOPS9210")
	suite.seedUser(922, "TOPS9220")

	suite.setBalances(920, 500, decimal.Zero)
	suite.setBalances(921, 9000, decimal.Zero)
	suite.setBalances(922, 2500, decimal.Zero)

	top, err := suite.repo.GetTopUsers(suite.ctx, 2)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), top, 2)
	assert.Equal(suite.T(), int64(921), top[0].TelegramID)
	assert.Equal(suite.T(), int64(922), top[1].TelegramID)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

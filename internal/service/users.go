package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const referralCodeAttempts = 5

type UserService struct {
	repo     UserRepository
	tiers    model.TierCatalog
	notifier NotificationSink
}

func NewUserService(repo UserRepository, tiers model.TierCatalog, notifier NotificationSink) *UserService {
	return &UserService{
		repo:     repo,
		tiers:    tiers,
		notifier: notifier,
	}
}

func generateReferralCode() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

// GetOrCreateUser returns the stored user for the verified identity, creating
// the record on first contact. The second return value reports whether a new
// record was created.
func (s *UserService) GetOrCreateUser(ctx context.Context, data *model.User) (*model.User, bool, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, data.TelegramID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now().UTC()
	authDate := data.AuthDate
	if authDate.IsZero() {
		authDate = now
	}

	newUser := &model.User{
		TelegramID:       data.TelegramID,
		Username:         data.Username,
		FirstName:        data.FirstName,
		LastName:         data.LastName,
		PhotoURL:         data.PhotoURL,
		SocialDollars:    decimal.Zero,
		Tier:             s.tiers.Resolve(0).Name,
		RegistrationDate: now,
		AuthDate:         authDate,
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		newUser.ReferralCode = generateReferralCode()
		err = s.repo.CreateUser(ctx, newUser)
		if err == nil {
			return newUser, true, nil
		}
		if errors.Is(err, repository.ErrReferralCodeTaken) {
			continue
		}
		if errors.Is(err, repository.ErrUserExists) {
			// A concurrent first contact already created the row.
			user, getErr := s.repo.GetUserByTelegramID(ctx, data.TelegramID)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to get user: %w", getErr)
			}
			return user, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	return nil, false, fmt.Errorf("failed to create user: %w", err)
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by telegram ID: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUserProfile(ctx context.Context, telegramID int64) (*model.UserProfile, error) {
	user, err := s.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	platforms, err := s.repo.GetClaimedPlatforms(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claimed platforms: %w", err)
	}

	tier, ok := s.tiers.ByName(user.Tier)
	if !ok {
		tier = s.tiers.Resolve(user.Referrals)
	}

	profile := &model.UserProfile{
		User:             user,
		Multiplier:       tier.Multiplier,
		AdReward:         tier.AdReward,
		ClaimedPlatforms: platforms,
	}

	if next, ok := s.tiers.Next(user.Referrals); ok {
		name := next.Name
		profile.NextTier = &name
		profile.NextTierAt = next.MinReferrals
	}

	return profile, nil
}

func (s *UserService) SetWalletAddress(ctx context.Context, telegramID int64, wallet string) error {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return ErrInvalidWalletAddress
	}

	err := s.repo.UpdateWalletAddress(ctx, telegramID, wallet)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update wallet address: %w", err)
	}
	return nil
}

func (s *UserService) GetLeaderboard(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.GetTopUsers(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	referrals, err := s.repo.GetUserReferrals(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}
	return referrals, nil
}

// RelayUserMessage forwards a user's free-form message to the admin chat.
func (s *UserService) RelayUserMessage(ctx context.Context, telegramID int64, text string) error {
	user, err := s.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}

	s.notifier.UserMessage(user, text)
	return nil
}

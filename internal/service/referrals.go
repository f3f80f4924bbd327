package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/internal/repository"
)

type ReferralService struct {
	repo      ReferralRepository
	notifier  NotificationSink
	events    EventPublisher
	joinBonus int64
}

// NewReferralService wires the referral flow. joinBonus is the flat point
// amount credited to the referred user on a successful registration; zero
// disables it.
func NewReferralService(repo ReferralRepository, notifier NotificationSink, events EventPublisher, joinBonus int64) *ReferralService {
	return &ReferralService{
		repo:      repo,
		notifier:  notifier,
		events:    events,
		joinBonus: joinBonus,
	}
}

func (s *ReferralService) ApplyReferralCode(ctx context.Context, telegramID int64, code string) (*model.ReferralResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidCode
	}

	referrer, err := s.repo.GetUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to resolve referral code: %w", err)
	}

	if referrer.TelegramID == telegramID {
		return nil, ErrSelfReferral
	}

	result, err := s.repo.RegisterReferral(ctx, referrer.TelegramID, telegramID, code, s.joinBonus)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyReferred):
			return nil, ErrAlreadyReferred
		case errors.Is(err, repository.ErrSelfReferral):
			return nil, ErrSelfReferral
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to register referral: %w", err)
		}
	}

	s.notifier.ReferralApplied(result)

	s.events.Publish(result.ReferrerTelegramID, model.Event{
		Type: model.EventReferralApplied,
		Payload: map[string]any{
			"reward_points": result.RewardPoints,
			"referrals":     result.ReferrerReferrals,
			"tier":          string(result.ReferrerTier),
		},
	})
	if result.TierChanged {
		s.events.Publish(result.ReferrerTelegramID, model.Event{
			Type: model.EventTierUp,
			Payload: map[string]any{
				"tier": string(result.ReferrerTier),
			},
		})
	}

	return result, nil
}

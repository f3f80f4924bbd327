package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/internal/repository"
)

const rewardHistoryLimit = 50

type RewardService struct {
	repo   RewardRepository
	events EventPublisher
}

func NewRewardService(repo RewardRepository, events EventPublisher) *RewardService {
	return &RewardService{
		repo:   repo,
		events: events,
	}
}

func (s *RewardService) CompleteTask(ctx context.Context, telegramID int64, kind model.RewardKind, requestKey string) (*model.RewardCredit, error) {
	switch kind {
	case model.RewardAdWatch, model.RewardPremiumAd, model.RewardWebsiteVisit, model.RewardYoutubeWatch:
	default:
		return nil, ErrUnknownTaskType
	}

	credit, err := s.repo.CreditTaskReward(ctx, telegramID, kind, requestKey)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrTaskLimitReached):
			return nil, ErrTaskLimitReached
		case errors.Is(err, repository.ErrUnknownRewardKind):
			return nil, ErrUnknownTaskType
		default:
			return nil, fmt.Errorf("failed to credit task reward: %w", err)
		}
	}

	if !credit.Replayed {
		s.events.Publish(telegramID, model.Event{
			Type: model.EventBalanceUpdate,
			Payload: map[string]any{
				"kind":    string(credit.Kind),
				"awarded": credit.AwardedPoints,
				"points":  credit.BalancePoints,
			},
		})
	}

	return credit, nil
}

func (s *RewardService) ClaimSocialReward(ctx context.Context, telegramID int64, platform string) (*model.SocialClaim, error) {
	if !model.IsSocialPlatform(platform) {
		return nil, ErrUnknownPlatform
	}

	claim, err := s.repo.ClaimSocialReward(ctx, telegramID, platform)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyClaimed):
			return nil, ErrAlreadyClaimed
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to claim social reward: %w", err)
		}
	}

	s.events.Publish(telegramID, model.Event{
		Type: model.EventBalanceUpdate,
		Payload: map[string]any{
			"kind":     string(model.RewardSocial),
			"platform": claim.Platform,
			"dollars":  claim.Dollars.String(),
		},
	})

	return claim, nil
}

func (s *RewardService) GetRewardHistory(ctx context.Context, telegramID int64) ([]*model.RewardCredit, error) {
	credits, err := s.repo.GetUserRewardHistory(ctx, telegramID, rewardHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get reward history: %w", err)
	}
	return credits, nil
}

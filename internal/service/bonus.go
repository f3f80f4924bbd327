package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/internal/repository"
)

type BonusService struct {
	repo   BonusRepository
	events EventPublisher
}

func NewBonusService(repo BonusRepository, events EventPublisher) *BonusService {
	return &BonusService{
		repo:   repo,
		events: events,
	}
}

func (s *BonusService) RedeemBonusCode(ctx context.Context, telegramID int64, code string) (*model.BonusGrant, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidCode
	}

	grant, err := s.repo.RedeemBonusCode(ctx, telegramID, code)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCodeNotFound):
			return nil, ErrInvalidCode
		case errors.Is(err, repository.ErrAlreadyRedeemed):
			return nil, ErrAlreadyRedeemed
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to redeem bonus code: %w", err)
		}
	}

	s.events.Publish(telegramID, model.Event{
		Type: model.EventBalanceUpdate,
		Payload: map[string]any{
			"kind":    string(model.RewardBonusCode),
			"code":    grant.Code,
			"points":  grant.BalancePoints,
			"dollars": grant.BalanceDollars.String(),
		},
	})

	return grant, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/internal/repository"
	"github.com/yzeman/yzemanbot-mini-app/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WithdrawalService struct {
	repo     WithdrawalRepository
	notifier NotificationSink
	events   EventPublisher
}

func NewWithdrawalService(repo WithdrawalRepository, notifier NotificationSink, events EventPublisher) *WithdrawalService {
	return &WithdrawalService{
		repo:     repo,
		notifier: notifier,
		events:   events,
	}
}

func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, telegramID int64) (*model.Withdrawal, error) {
	withdrawal, err := s.repo.CreateWithdrawal(ctx, telegramID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrWalletNotSet):
			return nil, ErrWalletNotSet
		case errors.Is(err, repository.ErrInsufficientBalance):
			return nil, ErrInsufficientBalance
		default:
			return nil, fmt.Errorf("failed to create withdrawal: %w", err)
		}
	}

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		logger.Logger().Warn("withdrawal created but user lookup for notification failed",
			zap.Int64("telegram_id", telegramID), zap.Error(err))
	} else {
		s.notifier.WithdrawalRequested(user, withdrawal)
	}

	s.events.Publish(telegramID, model.Event{
		Type: model.EventWithdrawalPending,
		Payload: map[string]any{
			"withdrawal_id": withdrawal.ID.String(),
			"amount":        withdrawal.Amount.String(),
		},
	})
	s.events.Publish(telegramID, model.Event{
		Type: model.EventBalanceUpdate,
		Payload: map[string]any{
			"points":  int64(0),
			"dollars": "0",
		},
	})

	return withdrawal, nil
}

func (s *WithdrawalService) GetUserWithdrawals(ctx context.Context, telegramID int64) ([]*model.Withdrawal, error) {
	withdrawals, err := s.repo.GetUserWithdrawals(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (s *WithdrawalService) ListPendingWithdrawals(ctx context.Context) ([]*model.Withdrawal, error) {
	withdrawals, err := s.repo.GetPendingWithdrawals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending withdrawals: %w", err)
	}
	return withdrawals, nil
}

// ReviewWithdrawal finalizes a pending withdrawal as paid or rejected. A
// rejection puts the full amount back on the user's currency balance.
func (s *WithdrawalService) ReviewWithdrawal(ctx context.Context, id uuid.UUID, status model.WithdrawalStatus) (*model.Withdrawal, error) {
	if status != model.WithdrawalStatusPaid && status != model.WithdrawalStatusRejected {
		return nil, ErrInvalidStatus
	}

	withdrawal, err := s.repo.UpdateWithdrawalStatus(ctx, id, status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrWithdrawalNotFound
		case errors.Is(err, repository.ErrWithdrawalFinalized):
			return nil, ErrWithdrawalFinalized
		default:
			return nil, fmt.Errorf("failed to update withdrawal status: %w", err)
		}
	}

	s.notifier.WithdrawalReviewed(withdrawal)

	s.events.Publish(withdrawal.UserTelegramID, model.Event{
		Type: model.EventWithdrawalReviewed,
		Payload: map[string]any{
			"withdrawal_id": withdrawal.ID.String(),
			"status":        string(withdrawal.Status),
		},
	})

	if status == model.WithdrawalStatusRejected {
		user, err := s.repo.GetUserByTelegramID(ctx, withdrawal.UserTelegramID)
		if err != nil {
			logger.Logger().Warn("withdrawal rejected but user lookup for balance event failed",
				zap.Int64("telegram_id", withdrawal.UserTelegramID), zap.Error(err))
		} else {
			s.events.Publish(user.TelegramID, model.Event{
				Type: model.EventBalanceUpdate,
				Payload: map[string]any{
					"points":  user.Points,
					"dollars": user.SocialDollars.String(),
				},
			})
		}
	}

	return withdrawal, nil
}

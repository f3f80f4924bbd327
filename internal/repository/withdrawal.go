package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type withdrawalRow struct {
	ID             uuid.UUID       `db:"id"`
	UserTelegramID int64           `db:"user_telegram_id"`
	Amount         decimal.Decimal `db:"amount"`
	WalletAddress  string          `db:"wallet_address"`
	Status         string          `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (row *withdrawalRow) toModel() *model.Withdrawal {
	return &model.Withdrawal{
		ID:             row.ID,
		UserTelegramID: row.UserTelegramID,
		Amount:         row.Amount,
		WalletAddress:  row.WalletAddress,
		Status:         model.WithdrawalStatus(row.Status),
		CreatedAt:      row.CreatedAt,
	}
}

// CreateWithdrawal converts the locked balances into a pending withdrawal.
// The row lock serializes concurrent requests for the same user, so the
// second request observes the zeroed balances and fails the minimum check.
func (r *Repository) CreateWithdrawal(ctx context.Context, telegramID int64) (*model.Withdrawal, error) {
	var withdrawal *model.Withdrawal

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := r.lockUserWithTx(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		if user.WalletAddress == nil || *user.WalletAddress == "" {
			return ErrWalletNotSet
		}

		amount := user.WithdrawableValue()
		if amount.LessThan(model.MinWithdrawalAmount) {
			return ErrInsufficientBalance
		}

		w := &model.Withdrawal{
			ID:             uuid.New(),
			UserTelegramID: telegramID,
			Amount:         amount,
			WalletAddress:  *user.WalletAddress,
			Status:         model.WithdrawalStatusPending,
			CreatedAt:      time.Now().UTC(),
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("withdrawals").
			SetMap(map[string]interface{}{
				"id":               w.ID,
				"user_telegram_id": w.UserTelegramID,
				"amount":           w.Amount,
				"wallet_address":   w.WalletAddress,
				"status":           w.Status,
				"created_at":       w.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return err
		}

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("points", 0).
			Set("social_dollars", 0).
			Where(squirrel.Eq{"telegram_id": telegramID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return err
		}

		withdrawal = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

func (r *Repository) GetUserWithdrawals(ctx context.Context, telegramID int64) ([]*model.Withdrawal, error) {
	query, args, err := squirrel.
		Select("id", "user_telegram_id", "amount", "wallet_address", "status", "created_at").
		From("withdrawals").
		Where(squirrel.Eq{"user_telegram_id": telegramID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []withdrawalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	withdrawals := make([]*model.Withdrawal, len(rows))
	for i := range rows {
		withdrawals[i] = rows[i].toModel()
	}
	return withdrawals, nil
}

func (r *Repository) GetPendingWithdrawals(ctx context.Context) ([]*model.Withdrawal, error) {
	query, args, err := squirrel.
		Select("id", "user_telegram_id", "amount", "wallet_address", "status", "created_at").
		From("withdrawals").
		Where(squirrel.Eq{"status": model.WithdrawalStatusPending}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []withdrawalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	withdrawals := make([]*model.Withdrawal, len(rows))
	for i := range rows {
		withdrawals[i] = rows[i].toModel()
	}
	return withdrawals, nil
}

// UpdateWithdrawalStatus finalizes a pending withdrawal. A rejection refunds
// the full amount to the currency balance, since both balances were already
// converted and zeroed when the request was created.
func (r *Repository) UpdateWithdrawalStatus(ctx context.Context, id uuid.UUID, status model.WithdrawalStatus) (*model.Withdrawal, error) {
	var withdrawal *model.Withdrawal

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Select("id", "user_telegram_id", "amount", "wallet_address", "status", "created_at").
			From("withdrawals").
			Where(squirrel.Eq{"id": id}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var row withdrawalRow
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if row.Status != string(model.WithdrawalStatusPending) {
			return ErrWithdrawalFinalized
		}

		updateQuery, updateArgs, err := squirrel.
			Update("withdrawals").
			Set("status", status).
			Where(squirrel.Eq{"id": id}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return err
		}

		if status == model.WithdrawalStatusRejected {
			refundQuery, refundArgs, err := squirrel.
				Update("users").
				Set("social_dollars", squirrel.Expr("social_dollars + ?", row.Amount)).
				Where(squirrel.Eq{"telegram_id": row.UserTelegramID}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, refundQuery, refundArgs...); err != nil {
				return err
			}
		}

		row.Status = string(status)
		withdrawal = row.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

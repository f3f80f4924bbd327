package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type bonusCodeRow struct {
	Code    string          `db:"code"`
	Points  int64           `db:"points"`
	Dollars decimal.Decimal `db:"dollars"`
	Daily   bool            `db:"daily"`
}

const redemptionDateLayout = "2006-01-02"

// RedeemBonusCode grants a catalog code to the user. Daily codes are unique
// per (user, code, UTC calendar day), the rest per (user, code); the
// redemption row and both balance credits commit together or not at all.
func (r *Repository) RedeemBonusCode(ctx context.Context, telegramID int64, code string) (*model.BonusGrant, error) {
	var grant *model.BonusGrant

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		bonusQuery, bonusArgs, err := squirrel.
			Select("code", "points", "dollars", "daily").
			From("bonus_codes").
			Where(squirrel.Eq{"code": code}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var bonus bonusCodeRow
		err = tx.GetContext(ctx, &bonus, bonusQuery, bonusArgs...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCodeNotFound
			}
			return err
		}

		// Same-user redemptions serialize on the user row; by the time
		// the exists check runs, any earlier redemption is visible.
		if _, err := r.lockUserWithTx(ctx, tx, telegramID); err != nil {
			return err
		}

		now := time.Now().UTC()
		today := now.Format(redemptionDateLayout)

		existsWhere := squirrel.And{
			squirrel.Eq{"user_telegram_id": telegramID},
			squirrel.Eq{"code": bonus.Code},
		}
		if bonus.Daily {
			existsWhere = append(existsWhere, squirrel.Eq{"redeemed_on": today})
		}

		existsQuery, existsArgs, err := squirrel.
			Select("1").
			From("bonus_redemptions").
			Where(existsWhere).
			Limit(1).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var one int
		err = tx.GetContext(ctx, &one, existsQuery, existsArgs...)
		if err == nil {
			return ErrAlreadyRedeemed
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("bonus_redemptions").
			SetMap(map[string]interface{}{
				"user_telegram_id": telegramID,
				"code":             bonus.Code,
				"redeemed_on":      today,
				"redeemed_at":      now,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, insertQuery, insertArgs...)
		if err != nil {
			switch {
			case pgErrCode(err, pgUniqueViolation):
				return ErrAlreadyRedeemed
			case pgErrCode(err, pgForeignKeyViolation):
				return ErrNotFound
			}
			return err
		}

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("points", squirrel.Expr("points + ?", bonus.Points)).
			Set("social_dollars", squirrel.Expr("social_dollars + ?", bonus.Dollars)).
			Where(squirrel.Eq{"telegram_id": telegramID}).
			Suffix("RETURNING points, social_dollars").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var balance struct {
			Points        int64           `db:"points"`
			SocialDollars decimal.Decimal `db:"social_dollars"`
		}
		if err := tx.GetContext(ctx, &balance, updateQuery, updateArgs...); err != nil {
			return err
		}

		if bonus.Points > 0 {
			if err := insertRewardWithTx(ctx, tx, &model.RewardCredit{
				ID:             uuid.New(),
				UserTelegramID: telegramID,
				Kind:           model.RewardBonusCode,
				RawPoints:      bonus.Points,
				AwardedPoints:  bonus.Points,
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}

		grant = &model.BonusGrant{
			Code:           bonus.Code,
			Points:         bonus.Points,
			Dollars:        bonus.Dollars,
			BalancePoints:  balance.Points,
			BalanceDollars: balance.SocialDollars,
			RedeemedAt:     now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return grant, nil
}

package repository

import (
	"context"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RegisterReferral records the referrer -> referred edge and settles every
// dependent value in one transaction: the referrer is credited the referral
// reward of the tier they hold at commit time, the referrer's tier is
// recomputed from the new referral count, and the referred user optionally
// receives a flat join bonus. The referred-side primary key makes a second
// inbound referral impossible regardless of interleaving.
func (r *Repository) RegisterReferral(ctx context.Context, referrerID, referredID int64, code string, joinBonus int64) (*model.ReferralResult, error) {
	var result *model.ReferralResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		referrer, err := r.lockUserWithTx(ctx, tx, referrerID)
		if err != nil {
			return err
		}

		tier, ok := r.tiers.ByName(referrer.Tier)
		if !ok {
			tier = r.tiers.Resolve(referrer.Referrals)
		}
		reward := tier.ReferralReward
		now := time.Now().UTC()

		insertQuery, insertArgs, err := squirrel.
			Insert("referrals").
			SetMap(map[string]interface{}{
				"referred_id":   referredID,
				"referrer_id":   referrerID,
				"code_used":     code,
				"reward_points": reward,
				"created_at":    now,
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
				return ErrAlreadyReferred
			case pgErrCode(err, pgCheckViolation):
				return ErrSelfReferral
			case pgErrCode(err, pgForeignKeyViolation):
				return ErrNotFound
			}
			return err
		}

		countQuery, countArgs, err := squirrel.
			Select("COUNT(*)").
			From("referrals").
			Where(squirrel.Eq{"referrer_id": referrerID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var count int
		if err := tx.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
			return err
		}

		newTier := r.tiers.Resolve(count)

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("points", squirrel.Expr("points + ?", reward)).
			Set("tier", newTier.Name).
			Where(squirrel.Eq{"telegram_id": referrerID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return err
		}

		if err := insertRewardWithTx(ctx, tx, &model.RewardCredit{
			ID:             uuid.New(),
			UserTelegramID: referrerID,
			Kind:           model.RewardReferral,
			RawPoints:      reward,
			AwardedPoints:  reward,
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		if joinBonus > 0 {
			bonusQuery, bonusArgs, err := squirrel.
				Update("users").
				Set("points", squirrel.Expr("points + ?", joinBonus)).
				Where(squirrel.Eq{"telegram_id": referredID}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, bonusQuery, bonusArgs...); err != nil {
				return err
			}

			if err := insertRewardWithTx(ctx, tx, &model.RewardCredit{
				ID:             uuid.New(),
				UserTelegramID: referredID,
				Kind:           model.RewardJoinBonus,
				RawPoints:      joinBonus,
				AwardedPoints:  joinBonus,
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}

		result = &model.ReferralResult{
			ReferrerTelegramID: referrerID,
			ReferredTelegramID: referredID,
			CodeUsed:           code,
			RewardPoints:       reward,
			JoinBonusPoints:    joinBonus,
			ReferrerTier:       newTier.Name,
			TierChanged:        newTier.Name != referrer.Tier,
			ReferrerReferrals:  count,
			CreatedAt:          now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

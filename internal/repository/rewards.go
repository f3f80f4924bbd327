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
	"github.com/lib/pq"
)

type rewardRow struct {
	ID             uuid.UUID `db:"id"`
	UserTelegramID int64     `db:"user_telegram_id"`
	Kind           string    `db:"kind"`
	RawPoints      int64     `db:"raw_points"`
	AwardedPoints  int64     `db:"awarded_points"`
	CreatedAt      time.Time `db:"created_at"`
}

type processedRequestRow struct {
	RequestKey     string    `db:"request_key"`
	UserTelegramID int64     `db:"user_telegram_id"`
	Kind           string    `db:"kind"`
	RawPoints      int64     `db:"raw_points"`
	AwardedPoints  int64     `db:"awarded_points"`
	CreatedAt      time.Time `db:"created_at"`
}

func insertRewardWithTx(ctx context.Context, tx *sqlx.Tx, credit *model.RewardCredit) error {
	query, args, err := squirrel.
		Insert("point_rewards").
		SetMap(map[string]interface{}{
			"id":               credit.ID,
			"user_telegram_id": credit.UserTelegramID,
			"kind":             credit.Kind,
			"raw_points":       credit.RawPoints,
			"awarded_points":   credit.AwardedPoints,
			"created_at":       credit.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// CreditTaskReward awards a task completion: the raw amount of the task kind
// is resolved against the tier the user holds inside the transaction, scaled
// by that tier's multiplier and floored. A non-empty requestKey makes the
// call idempotent; replaying a processed key returns the original credit
// without touching the balance.
func (r *Repository) CreditTaskReward(ctx context.Context, telegramID int64, kind model.RewardKind, requestKey string) (*model.RewardCredit, error) {
	var credit *model.RewardCredit

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if requestKey != "" {
			replay, err := getProcessedRequest(ctx, tx, requestKey)
			if err != nil {
				return err
			}
			if replay != nil {
				credit = replay
				return nil
			}
		}

		user, err := r.lockUserWithTx(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		// A concurrent request with the same key may have committed while
		// we waited on the user lock.
		if requestKey != "" {
			replay, err := getProcessedRequest(ctx, tx, requestKey)
			if err != nil {
				return err
			}
			if replay != nil {
				credit = replay
				return nil
			}
		}

		tier, ok := r.tiers.ByName(user.Tier)
		if !ok {
			tier = r.tiers.Resolve(user.Referrals)
		}

		raw, ok := tier.TaskBase(kind)
		if !ok {
			return ErrUnknownRewardKind
		}

		now := time.Now().UTC()
		switch kind {
		case model.RewardPremiumAd:
			if user.PremiumAdCount >= 1 {
				return ErrTaskLimitReached
			}
		case model.RewardWebsiteVisit:
			if user.LastWebsiteVisit != nil && sameUTCDay(*user.LastWebsiteVisit, now) {
				return ErrTaskLimitReached
			}
		case model.RewardYoutubeWatch:
			if user.LastYoutubeWatch != nil && sameUTCDay(*user.LastYoutubeWatch, now) {
				return ErrTaskLimitReached
			}
		}

		awarded := tier.ApplyMultiplier(raw)

		update := squirrel.
			Update("users").
			Set("points", squirrel.Expr("points + ?", awarded)).
			Where(squirrel.Eq{"telegram_id": telegramID})

		switch kind {
		case model.RewardAdWatch:
			update = update.Set("ad_count", squirrel.Expr("ad_count + 1"))
		case model.RewardPremiumAd:
			update = update.Set("premium_ad_count", squirrel.Expr("premium_ad_count + 1"))
		case model.RewardWebsiteVisit:
			update = update.Set("last_website_visit", now)
		case model.RewardYoutubeWatch:
			update = update.Set("last_youtube_watch", now)
		}

		updateQuery, updateArgs, err := update.
			Suffix("RETURNING points").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var balance int64
		if err := tx.GetContext(ctx, &balance, updateQuery, updateArgs...); err != nil {
			return err
		}

		credit = &model.RewardCredit{
			ID:             uuid.New(),
			UserTelegramID: telegramID,
			Kind:           kind,
			RawPoints:      raw,
			AwardedPoints:  awarded,
			Multiplier:     tier.Multiplier,
			BalancePoints:  balance,
			CreatedAt:      now,
		}

		if err := insertRewardWithTx(ctx, tx, credit); err != nil {
			return err
		}

		if requestKey != "" {
			if err := insertProcessedRequestWithTx(ctx, tx, requestKey, credit); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Same-key requests for different users do not serialize on the
		// user lock; the loser collides on the key itself and returns the
		// credit the winner recorded.
		if requestKey != "" && pgErrCode(err, pgUniqueViolation) && pgConstraint(err) == "processed_requests_pkey" {
			replay, replayErr := getProcessedRequest(ctx, r.db, requestKey)
			if replayErr == nil && replay != nil {
				return replay, nil
			}
		}
		return nil, err
	}

	return credit, nil
}

func getProcessedRequest(ctx context.Context, q sqlx.QueryerContext, requestKey string) (*model.RewardCredit, error) {
	query, args, err := squirrel.
		Select("request_key", "user_telegram_id", "kind", "raw_points", "awarded_points", "created_at").
		From("processed_requests").
		Where(squirrel.Eq{"request_key": requestKey}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row processedRequestRow
	err = sqlx.GetContext(ctx, q, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &model.RewardCredit{
		UserTelegramID: row.UserTelegramID,
		Kind:           model.RewardKind(row.Kind),
		RawPoints:      row.RawPoints,
		AwardedPoints:  row.AwardedPoints,
		Replayed:       true,
		CreatedAt:      row.CreatedAt,
	}, nil
}

func insertProcessedRequestWithTx(ctx context.Context, tx *sqlx.Tx, requestKey string, credit *model.RewardCredit) error {
	query, args, err := squirrel.
		Insert("processed_requests").
		SetMap(map[string]interface{}{
			"request_key":      requestKey,
			"user_telegram_id": credit.UserTelegramID,
			"kind":             credit.Kind,
			"raw_points":       credit.RawPoints,
			"awarded_points":   credit.AwardedPoints,
			"created_at":       credit.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// ClaimSocialReward pays the one-time follow reward for a platform. The claim
// table's primary key rejects a second claim for the same platform.
func (r *Repository) ClaimSocialReward(ctx context.Context, telegramID int64, platform string) (*model.SocialClaim, error) {
	var claim *model.SocialClaim

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		dollars := model.SocialRewardDollars

		insertQuery, insertArgs, err := squirrel.
			Insert("social_claims").
			SetMap(map[string]interface{}{
				"user_telegram_id": telegramID,
				"platform":         platform,
				"dollars":          dollars,
				"claimed_at":       now,
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
				return ErrAlreadyClaimed
			case pgErrCode(err, pgForeignKeyViolation):
				return ErrNotFound
			}
			return err
		}

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("social_dollars", squirrel.Expr("social_dollars + ?", dollars)).
			Where(squirrel.Eq{"telegram_id": telegramID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return err
		}

		claim = &model.SocialClaim{
			UserTelegramID: telegramID,
			Platform:       platform,
			Dollars:        dollars,
			ClaimedAt:      now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return claim, nil
}

func (r *Repository) GetClaimedPlatforms(ctx context.Context, telegramID int64) ([]string, error) {
	query, args, err := squirrel.
		Select("COALESCE(array_agg(platform ORDER BY claimed_at), '{}')").
		From("social_claims").
		Where(squirrel.Eq{"user_telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var platforms pq.StringArray
	if err := r.db.GetContext(ctx, &platforms, query, args...); err != nil {
		return nil, err
	}
	return platforms, nil
}

func (r *Repository) GetUserRewardHistory(ctx context.Context, telegramID int64, limit int) ([]*model.RewardCredit, error) {
	query, args, err := squirrel.
		Select("id", "user_telegram_id", "kind", "raw_points", "awarded_points", "created_at").
		From("point_rewards").
		Where(squirrel.Eq{"user_telegram_id": telegramID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []rewardRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	credits := make([]*model.RewardCredit, len(rows))
	for i, row := range rows {
		credits[i] = &model.RewardCredit{
			ID:             row.ID,
			UserTelegramID: row.UserTelegramID,
			Kind:           model.RewardKind(row.Kind),
			RawPoints:      row.RawPoints,
			AwardedPoints:  row.AwardedPoints,
			CreatedAt:      row.CreatedAt,
		}
	}
	return credits, nil
}

// ResetDailyTaskCounters clears the per-day ad counters for every user.
// Runs from the daily job; re-running it is harmless.
func (r *Repository) ResetDailyTaskCounters(ctx context.Context) (int64, error) {
	query, args, err := squirrel.
		Update("users").
		Set("ad_count", 0).
		Set("premium_ad_count", 0).
		Where(squirrel.Or{
			squirrel.Gt{"ad_count": 0},
			squirrel.Gt{"premium_ad_count": 0},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *Repository) PruneProcessedRequests(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	query, args, err := squirrel.
		Delete("processed_requests").
		Where(squirrel.Lt{"created_at": cutoff}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

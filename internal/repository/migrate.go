package repository

import (
	"context"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/pkg/logger"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	telegram_id       BIGINT PRIMARY KEY,
	username          TEXT NOT NULL DEFAULT '',
	first_name        TEXT NOT NULL DEFAULT '',
	last_name         TEXT NOT NULL DEFAULT '',
	photo_url         TEXT NOT NULL DEFAULT '',
	referral_code     TEXT NOT NULL UNIQUE,
	points            BIGINT NOT NULL DEFAULT 0 CHECK (points >= 0),
	social_dollars    NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (social_dollars >= 0),
	tier              TEXT NOT NULL DEFAULT 'Fresher',
	wallet_address    TEXT,
	is_admin          BOOLEAN NOT NULL DEFAULT FALSE,
	ad_count          INTEGER NOT NULL DEFAULT 0,
	premium_ad_count  INTEGER NOT NULL DEFAULT 0,
	last_website_visit TIMESTAMPTZ,
	last_youtube_watch TIMESTAMPTZ,
	registration_date TIMESTAMPTZ NOT NULL,
	last_auth_date    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS tiers (
	name            TEXT PRIMARY KEY,
	min_referrals   INTEGER NOT NULL UNIQUE,
	multiplier      DOUBLE PRECISION NOT NULL,
	ad_reward       BIGINT NOT NULL,
	referral_reward BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS referrals (
	referred_id   BIGINT PRIMARY KEY REFERENCES users (telegram_id),
	referrer_id   BIGINT NOT NULL REFERENCES users (telegram_id),
	code_used     TEXT NOT NULL,
	reward_points BIGINT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT referrals_no_self CHECK (referrer_id <> referred_id)
);
CREATE INDEX IF NOT EXISTS referrals_referrer_idx ON referrals (referrer_id);

CREATE TABLE IF NOT EXISTS point_rewards (
	id               UUID PRIMARY KEY,
	user_telegram_id BIGINT NOT NULL REFERENCES users (telegram_id),
	kind             TEXT NOT NULL,
	raw_points       BIGINT NOT NULL,
	awarded_points   BIGINT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS point_rewards_user_idx ON point_rewards (user_telegram_id, created_at DESC);

CREATE TABLE IF NOT EXISTS social_claims (
	user_telegram_id BIGINT NOT NULL REFERENCES users (telegram_id),
	platform         TEXT NOT NULL,
	dollars          NUMERIC(12,2) NOT NULL,
	claimed_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_telegram_id, platform)
);

CREATE TABLE IF NOT EXISTS bonus_codes (
	code    TEXT PRIMARY KEY,
	points  BIGINT NOT NULL DEFAULT 0,
	dollars NUMERIC(12,2) NOT NULL DEFAULT 0,
	daily   BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS bonus_redemptions (
	user_telegram_id BIGINT NOT NULL REFERENCES users (telegram_id),
	code             TEXT NOT NULL REFERENCES bonus_codes (code),
	redeemed_on      DATE NOT NULL,
	redeemed_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_telegram_id, code, redeemed_on)
);

CREATE TABLE IF NOT EXISTS withdrawals (
	id               UUID PRIMARY KEY,
	user_telegram_id BIGINT NOT NULL REFERENCES users (telegram_id),
	amount           NUMERIC(12,2) NOT NULL,
	wallet_address   TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS withdrawals_user_idx ON withdrawals (user_telegram_id, created_at DESC);

CREATE TABLE IF NOT EXISTS processed_requests (
	request_key      TEXT PRIMARY KEY,
	user_telegram_id BIGINT NOT NULL,
	kind             TEXT NOT NULL,
	raw_points       BIGINT NOT NULL,
	awarded_points   BIGINT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Bootstrap applies the schema, seeds the tier and bonus-code catalogs and
// loads the tier catalog into memory. Safe to run on every startup.
func (r *Repository) Bootstrap(ctx context.Context) error {
	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return errors.Wrap(err, "failed to apply schema")
		}
		if err := seedTiers(ctx, tx); err != nil {
			return err
		}
		return seedBonusCodes(ctx, tx)
	})
	if err != nil {
		return err
	}

	if err := r.loadTierCatalog(ctx); err != nil {
		return err
	}

	logger.Logger().Info("Database schema bootstrapped")
	return nil
}

func seedTiers(ctx context.Context, tx *sqlx.Tx) error {
	builder := squirrel.
		Insert("tiers").
		Columns("name", "min_referrals", "multiplier", "ad_reward", "referral_reward")

	for _, t := range model.DefaultTierCatalog() {
		builder = builder.Values(t.Name, t.MinReferrals, t.Multiplier, t.AdReward, t.ReferralReward)
	}

	query, args, err := builder.
		Suffix("ON CONFLICT (name) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build tiers seed query")
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "failed to seed tiers")
	}
	return nil
}

func seedBonusCodes(ctx context.Context, tx *sqlx.Tx) error {
	builder := squirrel.
		Insert("bonus_codes").
		Columns("code", "points", "dollars", "daily")

	for _, b := range model.DefaultBonusCodes() {
		builder = builder.Values(b.Code, b.Points, b.Dollars, b.Daily)
	}

	query, args, err := builder.
		Suffix("ON CONFLICT (code) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build bonus codes seed query")
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "failed to seed bonus codes")
	}
	return nil
}

type tierRow struct {
	Name           string  `db:"name"`
	MinReferrals   int     `db:"min_referrals"`
	Multiplier     float64 `db:"multiplier"`
	AdReward       int64   `db:"ad_reward"`
	ReferralReward int64   `db:"referral_reward"`
}

func (r *Repository) loadTierCatalog(ctx context.Context) error {
	query, args, err := squirrel.
		Select("name", "min_referrals", "multiplier", "ad_reward", "referral_reward").
		From("tiers").
		OrderBy("min_referrals ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build tier catalog query")
	}

	var rows []tierRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return errors.Wrap(err, "failed to load tier catalog")
	}
	if len(rows) == 0 {
		return errors.New("tier catalog is empty")
	}

	catalog := make(model.TierCatalog, len(rows))
	for i, row := range rows {
		catalog[i] = model.Tier{
			Name:           model.TierName(row.Name),
			MinReferrals:   row.MinReferrals,
			Multiplier:     row.Multiplier,
			AdReward:       row.AdReward,
			ReferralReward: row.ReferralReward,
		}
	}
	r.tiers = catalog
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type User struct {
	TelegramID       int64           `db:"telegram_id"`
	Username         string          `db:"username"`
	FirstName        string          `db:"first_name"`
	LastName         string          `db:"last_name"`
	PhotoURL         string          `db:"photo_url"`
	ReferralCode     string          `db:"referral_code"`
	Points           int64           `db:"points"`
	SocialDollars    decimal.Decimal `db:"social_dollars"`
	Tier             string          `db:"tier"`
	WalletAddress    *string         `db:"wallet_address"`
	IsAdmin          bool            `db:"is_admin"`
	AdCount          int             `db:"ad_count"`
	PremiumAdCount   int             `db:"premium_ad_count"`
	LastWebsiteVisit *time.Time      `db:"last_website_visit"`
	LastYoutubeWatch *time.Time      `db:"last_youtube_watch"`
	Referrals        int             `db:"referrals"`
	RegistrationDate time.Time       `db:"registration_date"`
	AuthDate         time.Time       `db:"last_auth_date"`
}

func (u *User) toModel() *model.User {
	return &model.User{
		TelegramID:       u.TelegramID,
		Username:         u.Username,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		PhotoURL:         u.PhotoURL,
		ReferralCode:     u.ReferralCode,
		Points:           u.Points,
		SocialDollars:    u.SocialDollars,
		Tier:             model.TierName(u.Tier),
		WalletAddress:    u.WalletAddress,
		IsAdmin:          u.IsAdmin,
		AdCount:          u.AdCount,
		PremiumAdCount:   u.PremiumAdCount,
		LastWebsiteVisit: u.LastWebsiteVisit,
		LastYoutubeWatch: u.LastYoutubeWatch,
		Referrals:        u.Referrals,
		RegistrationDate: u.RegistrationDate,
		AuthDate:         u.AuthDate,
	}
}

type userReferral struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	Points     int64     `db:"points"`
	Tier       string    `db:"tier"`
	JoinedAt   time.Time `db:"created_at"`
}

// referralCountColumn derives the referral count from the edge table so it
// can never drift from the recorded referrals.
const referralCountColumn = "(SELECT COUNT(*) FROM referrals WHERE referrals.referrer_id = users.telegram_id) AS referrals"

func userColumns() []string {
	return []string{
		"telegram_id",
		"username",
		"first_name",
		"last_name",
		"photo_url",
		"referral_code",
		"points",
		"social_dollars",
		"tier",
		"wallet_address",
		"is_admin",
		"ad_count",
		"premium_ad_count",
		"last_website_visit",
		"last_youtube_watch",
		referralCountColumn,
		"registration_date",
		"last_auth_date",
	}
}

func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query, args, err := squirrel.
		Insert("users").
		SetMap(map[string]interface{}{
			"telegram_id":       user.TelegramID,
			"username":          user.Username,
			"first_name":        user.FirstName,
			"last_name":         user.LastName,
			"photo_url":         user.PhotoURL,
			"referral_code":     user.ReferralCode,
			"points":            user.Points,
			"social_dollars":    user.SocialDollars,
			"tier":              user.Tier,
			"registration_date": user.RegistrationDate,
			"last_auth_date":    user.AuthDate,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if pgErrCode(err, pgUniqueViolation) {
			if pgConstraint(err) == "users_referral_code_key" {
				return ErrReferralCodeTaken
			}
			return ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select(userColumns()...).
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select(userColumns()...).
		From("users").
		Where(squirrel.Eq{"referral_code": code}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

// lockUserWithTx reads the user row under FOR UPDATE so balance and tier
// arithmetic inside the transaction works on settled values.
func (r *Repository) lockUserWithTx(ctx context.Context, tx *sqlx.Tx, telegramID int64) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select(userColumns()...).
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		Suffix("FOR UPDATE OF users").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) UpdateWalletAddress(ctx context.Context, telegramID int64, wallet string) error {
	query, args, err := squirrel.
		Update("users").
		Set("wallet_address", wallet).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	query, args, err := squirrel.
		Select("telegram_id", "username", "points", "tier", referralCountColumn).
		From("users").
		OrderBy("points DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var users []User
	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, err
	}

	userList := make([]*model.User, len(users))
	for i := range users {
		userList[i] = users[i].toModel()
	}
	return userList, nil
}

func (r *Repository) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	query := squirrel.Select(
		"u.telegram_id",
		"u.username",
		"u.points",
		"u.tier",
		"r.created_at",
	).
		From("referrals r").
		Join("users u ON u.telegram_id = r.referred_id").
		Where(squirrel.Eq{"r.referrer_id": telegramID}).
		OrderBy("r.created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var referrals []*userReferral
	err = r.db.SelectContext(ctx, &referrals, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}

	refs := make([]*model.UserReferral, len(referrals))
	for i, ref := range referrals {
		refs[i] = &model.UserReferral{
			TelegramID: ref.TelegramID,
			Username:   ref.Username,
			Points:     ref.Points,
			Tier:       model.TierName(ref.Tier),
			JoinedAt:   ref.JoinedAt,
		}
	}

	return refs, nil
}

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/internal/service"
	"github.com/yzeman/yzemanbot-mini-app/pkg/auth"
	"github.com/yzeman/yzemanbot-mini-app/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type userRoutes struct {
	us service.UserServiceI
	rs service.ReferralServiceI
	a  *auth.TelegramAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, rs service.ReferralServiceI, a *auth.TelegramAuth) {
	r := &userRoutes{us: us, rs: rs, a: a}
	h := handler.Group("/users")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", r.RegisterUser)
		h.GET("/leaderboard", r.GetLeaderboard)
		h.GET("/:telegram_id", r.GetUserProfile)
		h.GET("/:telegram_id/referrals", r.GetUserReferrals)
		h.PATCH("/wallet", r.UpdateWallet)
	}
}

// telegramUserData pulls the authenticated identity the auth middleware
// stored on the context. On failure it has already written the response.
func telegramUserData(c *gin.Context) (*auth.TelegramUserData, bool) {
	log := logger.Logger()

	userData, exists := c.Get("telegram_user")
	if !exists {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	user, ok := userData.(*auth.TelegramUserData)
	if !ok {
		log.Error("invalid type assertion for telegram user data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	return user, true
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"telegram_id":       user.TelegramID,
		"username":          user.Username,
		"first_name":        user.FirstName,
		"last_name":         user.LastName,
		"photo_url":         user.PhotoURL,
		"referral_code":     user.ReferralCode,
		"points":            user.Points,
		"social_dollars":    user.SocialDollars.String(),
		"tier":              user.Tier,
		"wallet_address":    user.WalletAddress,
		"referrals":         user.Referrals,
		"registration_date": user.RegistrationDate,
	}
}

type RegisterUserRequest struct {
	ReferralCode string `json:"referral_code"`
}

// RegisterUser creates the account on first contact and returns the existing
// one afterwards. A referral code sent along with the first contact is
// applied best effort; a bad code never fails the registration.
func (r *userRoutes) RegisterUser(c *gin.Context) {
	log := logger.Logger()

	var req RegisterUserRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Error("failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	tgUser, ok := telegramUserData(c)
	if !ok {
		return
	}

	u := &model.User{
		TelegramID:       tgUser.ID,
		Username:         tgUser.Username,
		FirstName:        tgUser.FirstName,
		LastName:         tgUser.LastName,
		PhotoURL:         tgUser.PhotoURL,
		RegistrationDate: tgUser.AuthDate,
		AuthDate:         tgUser.AuthDate,
	}

	user, created, err := r.us.GetOrCreateUser(c.Request.Context(), u)
	if err != nil {
		log.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	if created && req.ReferralCode != "" {
		if _, err := r.rs.ApplyReferralCode(c.Request.Context(), user.TelegramID, req.ReferralCode); err != nil {
			log.Info("referral code not applied on registration",
				zap.Int64("telegram_id", user.TelegramID),
				zap.Error(err))
		} else if refreshed, err := r.us.GetUserByTelegramID(c.Request.Context(), user.TelegramID); err == nil {
			user = refreshed
		}
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, userResponse(user))
}

func (r *userRoutes) GetUserProfile(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	profile, err := r.us.GetUserProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no user associated with the provided telegram_id"})
			return
		}
		log.Error("failed to get user profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user profile"})
		return
	}

	out := userResponse(profile.User)
	out["multiplier"] = profile.Multiplier
	out["ad_reward"] = profile.AdReward
	out["next_tier"] = profile.NextTier
	out["next_tier_at"] = profile.NextTierAt
	out["claimed_platforms"] = profile.ClaimedPlatforms
	out["withdrawable_value"] = profile.User.WithdrawableValue().String()

	c.JSON(http.StatusOK, out)
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	users, err := r.us.GetLeaderboard(c.Request.Context())
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	var response []gin.H
	for _, user := range users {
		response = append(response, gin.H{
			"username":  user.Username,
			"points":    user.Points,
			"tier":      user.Tier,
			"referrals": user.Referrals,
		})
	}

	c.JSON(http.StatusOK, response)
}

type userReferralResponse struct {
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	Points     int64     `json:"points"`
	Tier       string    `json:"tier"`
	JoinedAt   time.Time `json:"joined_at"`
}

func (r *userRoutes) GetUserReferrals(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	referrals, err := r.us.GetUserReferrals(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to get user referrals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user referrals"})
		return
	}

	out := make([]userReferralResponse, len(referrals))
	for i, ref := range referrals {
		out[i] = userReferralResponse{
			TelegramID: ref.TelegramID,
			Username:   ref.Username,
			Points:     ref.Points,
			Tier:       string(ref.Tier),
			JoinedAt:   ref.JoinedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

type UpdateWalletRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
}

func (r *userRoutes) UpdateWallet(c *gin.Context) {
	log := logger.Logger()

	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	tgUser, ok := telegramUserData(c)
	if !ok {
		return
	}

	err := r.us.SetWalletAddress(c.Request.Context(), tgUser.ID, req.WalletAddress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWalletAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Error("failed to update wallet address", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update wallet address"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address": req.WalletAddress,
	})
}

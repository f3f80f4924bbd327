package api

import (
	"errors"
	"net/http"

	"github.com/yzeman/yzemanbot-mini-app/internal/service"
	"github.com/yzeman/yzemanbot-mini-app/pkg/auth"

	"github.com/gin-gonic/gin"
)

type referralRoutes struct {
	rs service.ReferralServiceI
	a  *auth.TelegramAuth
}

func NewReferralRoutes(handler *gin.RouterGroup, rs service.ReferralServiceI, a *auth.TelegramAuth) {
	r := &referralRoutes{rs: rs, a: a}
	h := handler.Group("/referrals")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/apply", r.ApplyReferralCode)
	}
}

type ApplyReferralRequest struct {
	ReferralCode string `json:"referral_code" binding:"required"`
}

func (r *referralRoutes) ApplyReferralCode(c *gin.Context) {
	var req ApplyReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tgUser, ok := telegramUserData(c)
	if !ok {
		return
	}

	result, err := r.rs.ApplyReferralCode(c.Request.Context(), tgUser.ID, req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "referral code does not exist"})
		case errors.Is(err, service.ErrSelfReferral):
			c.JSON(http.StatusBadRequest, gin.H{"error": "own referral code cannot be used"})
		case errors.Is(err, service.ErrAlreadyReferred):
			c.JSON(http.StatusConflict, gin.H{"error": "a referral was already recorded for this user"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply referral code"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code":        result.CodeUsed,
		"referrer_telegram_id": result.ReferrerTelegramID,
		"join_bonus_points":    result.JoinBonusPoints,
	})
}

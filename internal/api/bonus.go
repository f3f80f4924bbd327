package api

import (
	"errors"
	"net/http"

	"github.com/yzeman/yzemanbot-mini-app/internal/service"
	"github.com/yzeman/yzemanbot-mini-app/pkg/auth"

	"github.com/gin-gonic/gin"
)

type bonusRoutes struct {
	bs service.BonusServiceI
	a  *auth.TelegramAuth
}

func NewBonusRoutes(handler *gin.RouterGroup, bs service.BonusServiceI, a *auth.TelegramAuth) {
	r := &bonusRoutes{bs: bs, a: a}
	h := handler.Group("/bonus")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/redeem", r.RedeemBonusCode)
	}
}

type RedeemBonusRequest struct {
	Code string `json:"code" binding:"required"`
}

func (r *bonusRoutes) RedeemBonusCode(c *gin.Context) {
	var req RedeemBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tgUser, ok := telegramUserData(c)
	if !ok {
		return
	}

	grant, err := r.bs.RedeemBonusCode(c.Request.Context(), tgUser.ID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown bonus code"})
		case errors.Is(err, service.ErrAlreadyRedeemed):
			c.JSON(http.StatusConflict, gin.H{"error": "bonus code already redeemed"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to redeem bonus code"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":            grant.Code,
		"points":          grant.Points,
		"dollars":         grant.Dollars.String(),
		"balance_points":  grant.BalancePoints,
		"balance_dollars": grant.BalanceDollars.String(),
	})
}

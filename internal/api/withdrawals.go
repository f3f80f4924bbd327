package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/middleware"
	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/internal/service"
	"github.com/yzeman/yzemanbot-mini-app/pkg/auth"
	"github.com/yzeman/yzemanbot-mini-app/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type withdrawalRoutes struct {
	ws service.WithdrawalServiceI
	a  *auth.TelegramAuth
}

func NewWithdrawalRoutes(handler *gin.RouterGroup, ws service.WithdrawalServiceI, a *auth.TelegramAuth, authz *middleware.Authorization) {
	r := &withdrawalRoutes{ws: ws, a: a}
	h := handler.Group("/withdrawals")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", r.RequestWithdrawal)
		h.GET("/", r.GetUserWithdrawals)
	}

	admin := h.Group("/admin")
	admin.Use(authz.AdminOnly())
	{
		admin.GET("/pending", r.ListPending)
		admin.PATCH("/:withdrawal_id", r.ReviewWithdrawal)
	}
}

type withdrawalResponse struct {
	WithdrawalID  string    `json:"withdrawal_id"`
	TelegramID    int64     `json:"telegram_id"`
	Amount        string    `json:"amount"`
	WalletAddress string    `json:"wallet_address"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func toWithdrawalResponse(w *model.Withdrawal) withdrawalResponse {
	return withdrawalResponse{
		WithdrawalID:  w.ID.String(),
		TelegramID:    w.UserTelegramID,
		Amount:        w.Amount.StringFixed(2),
		WalletAddress: w.WalletAddress,
		Status:        string(w.Status),
		CreatedAt:     w.CreatedAt,
	}
}

func (r *withdrawalRoutes) RequestWithdrawal(c *gin.Context) {
	log := logger.Logger()

	tgUser, ok := telegramUserData(c)
	if !ok {
		return
	}

	withdrawal, err := r.ws.RequestWithdrawal(c.Request.Context(), tgUser.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrWalletNotSet):
			c.JSON(http.StatusBadRequest, gin.H{"error": "wallet address must be set before withdrawing"})
		case errors.Is(err, service.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "balance is below the withdrawal minimum"})
		default:
			log.Error("failed to create withdrawal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create withdrawal"})
		}
		return
	}

	c.JSON(http.StatusCreated, toWithdrawalResponse(withdrawal))
}

func (r *withdrawalRoutes) GetUserWithdrawals(c *gin.Context) {
	log := logger.Logger()

	tgUser, ok := telegramUserData(c)
	if !ok {
		return
	}

	withdrawals, err := r.ws.GetUserWithdrawals(c.Request.Context(), tgUser.ID)
	if err != nil {
		log.Error("failed to get withdrawals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get withdrawals"})
		return
	}

	out := make([]withdrawalResponse, len(withdrawals))
	for i, w := range withdrawals {
		out[i] = toWithdrawalResponse(w)
	}

	c.JSON(http.StatusOK, out)
}

func (r *withdrawalRoutes) ListPending(c *gin.Context) {
	log := logger.Logger()

	withdrawals, err := r.ws.ListPendingWithdrawals(c.Request.Context())
	if err != nil {
		log.Error("failed to get pending withdrawals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get pending withdrawals"})
		return
	}

	out := make([]withdrawalResponse, len(withdrawals))
	for i, w := range withdrawals {
		out[i] = toWithdrawalResponse(w)
	}

	c.JSON(http.StatusOK, out)
}

type ReviewWithdrawalRequest struct {
	Status string `json:"status" binding:"required"`
}

func (r *withdrawalRoutes) ReviewWithdrawal(c *gin.Context) {
	log := logger.Logger()

	id, err := uuid.Parse(c.Param("withdrawal_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal_id"})
		return
	}

	var req ReviewWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	withdrawal, err := r.ws.ReviewWithdrawal(c.Request.Context(), id, model.WithdrawalStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be paid or rejected"})
		case errors.Is(err, service.ErrWithdrawalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		case errors.Is(err, service.ErrWithdrawalFinalized):
			c.JSON(http.StatusConflict, gin.H{"error": "withdrawal already finalized"})
		default:
			log.Error("failed to review withdrawal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to review withdrawal"})
		}
		return
	}

	c.JSON(http.StatusOK, toWithdrawalResponse(withdrawal))
}

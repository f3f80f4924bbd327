package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/internal/service"
	"github.com/yzeman/yzemanbot-mini-app/pkg/auth"

	"github.com/gin-gonic/gin"
)

type taskRoutes struct {
	rs service.RewardServiceI
	a  *auth.TelegramAuth
}

func NewTaskRoutes(handler *gin.RouterGroup, rs service.RewardServiceI, a *auth.TelegramAuth) {
	r := &taskRoutes{rs: rs, a: a}
	h := handler.Group("/tasks")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/complete", r.CompleteTask)
		h.GET("/history", r.GetHistory)
	}
}

type CompleteTaskRequest struct {
	TaskType   string `json:"task_type" binding:"required"`
	Platform   string `json:"platform"`
	RequestKey string `json:"request_key"`
}

// CompleteTask credits the reward for a finished task. Social follows are
// claimed through the same endpoint with task_type "social" and a platform.
func (r *taskRoutes) CompleteTask(c *gin.Context) {
	var req CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tgUser, ok := telegramUserData(c)
	if !ok {
		return
	}

	if req.TaskType == string(model.RewardSocial) {
		r.claimSocial(c, tgUser.ID, req.Platform)
		return
	}

	credit, err := r.rs.CompleteTask(c.Request.Context(), tgUser.ID, model.RewardKind(req.TaskType), req.RequestKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownTaskType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown task_type"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrTaskLimitReached):
			c.JSON(http.StatusForbidden, gin.H{"error": "task is not available again yet"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete task"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_type":      credit.Kind,
		"raw_points":     credit.RawPoints,
		"awarded_points": credit.AwardedPoints,
		"multiplier":     credit.Multiplier,
		"points":         credit.BalancePoints,
		"replayed":       credit.Replayed,
	})
}

func (r *taskRoutes) claimSocial(c *gin.Context, telegramID int64, platform string) {
	if platform == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform is required for social tasks"})
		return
	}

	claim, err := r.rs.ClaimSocialReward(c.Request.Context(), telegramID, platform)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPlatform):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "reward already claimed for this platform"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim social reward"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_type":  model.RewardSocial,
		"platform":   claim.Platform,
		"dollars":    claim.Dollars.String(),
		"claimed_at": claim.ClaimedAt,
	})
}

type rewardHistoryResponse struct {
	Kind          string    `json:"kind"`
	RawPoints     int64     `json:"raw_points"`
	AwardedPoints int64     `json:"awarded_points"`
	CreatedAt     time.Time `json:"created_at"`
}

func (r *taskRoutes) GetHistory(c *gin.Context) {
	tgUser, ok := telegramUserData(c)
	if !ok {
		return
	}

	credits, err := r.rs.GetRewardHistory(c.Request.Context(), tgUser.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get reward history"})
		return
	}

	out := make([]rewardHistoryResponse, len(credits))
	for i, credit := range credits {
		out[i] = rewardHistoryResponse{
			Kind:          string(credit.Kind),
			RawPoints:     credit.RawPoints,
			AwardedPoints: credit.AwardedPoints,
			CreatedAt:     credit.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

package api

import (
	"errors"
	"net/http"

	"github.com/yzeman/yzemanbot-mini-app/internal/service"
	"github.com/yzeman/yzemanbot-mini-app/pkg/auth"

	"github.com/gin-gonic/gin"
)

type messageRoutes struct {
	us service.UserServiceI
	a  *auth.TelegramAuth
}

func NewMessageRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.TelegramAuth) {
	r := &messageRoutes{us: us, a: a}
	h := handler.Group("/messages")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", r.SendMessage)
	}
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// SendMessage relays a free-form user message to the operators. Delivery is
// fire and forget; the endpoint only confirms the relay was handed off.
func (r *messageRoutes) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tgUser, ok := telegramUserData(c)
	if !ok {
		return
	}

	if err := r.us.RelayUserMessage(c.Request.Context(), tgUser.ID, req.Text); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{})
}

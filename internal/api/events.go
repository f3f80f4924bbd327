package api

import (
	"net/http"

	"github.com/yzeman/yzemanbot-mini-app/internal/notify"
	"github.com/yzeman/yzemanbot-mini-app/pkg/auth"
	"github.com/yzeman/yzemanbot-mini-app/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type eventRoutes struct {
	hub *notify.Hub
	a   *auth.TelegramAuth
}

func NewEventRoutes(handler *gin.RouterGroup, hub *notify.Hub, a *auth.TelegramAuth) {
	r := &eventRoutes{hub: hub, a: a}
	h := handler.Group("/events")
	h.Use(a.TelegramAuthMiddleware())

	h.GET("/ws", r.handleWebSocket)
}

// handleWebSocket upgrades the connection and registers it for event pushes.
// The read loop only watches for the close; clients never send anything the
// server acts on.
func (r *eventRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	tgUser, ok := telegramUserData(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed",
			zap.Int64("telegram_id", tgUser.ID),
			zap.Error(err))
		return
	}

	r.hub.Attach(tgUser.ID, conn)

	go func() {
		defer func() {
			r.hub.Detach(tgUser.ID, conn)
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Info("websocket unexpected close",
						zap.Int64("telegram_id", tgUser.ID),
						zap.Error(err))
				}
				return
			}
		}
	}()
}

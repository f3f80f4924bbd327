package notify

import (
	"sync"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/pkg/logger"
	"go.uber.org/zap"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Hub tracks one live websocket per user and pushes balance and tier events
// to it. Publish is best effort: a user without an open socket misses the
// push and sees fresh numbers on their next request.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]*client
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]*client)}
}

// Attach registers conn for telegramID, closing any connection the same user
// had open before.
func (h *Hub) Attach(telegramID int64, conn *websocket.Conn) {
	h.mu.Lock()
	old := h.clients[telegramID]
	h.clients[telegramID] = &client{conn: conn}
	h.mu.Unlock()

	if old != nil {
		old.conn.Close()
	}
}

// Detach removes conn if it is still the registered connection for
// telegramID. A socket replaced by a newer Attach stays untouched.
func (h *Hub) Detach(telegramID int64, conn *websocket.Conn) {
	h.mu.Lock()
	if cl, ok := h.clients[telegramID]; ok && cl.conn == conn {
		delete(h.clients, telegramID)
	}
	h.mu.Unlock()
}

func (h *Hub) Publish(telegramID int64, event model.Event) {
	h.mu.RLock()
	cl := h.clients[telegramID]
	h.mu.RUnlock()

	if cl == nil {
		return
	}

	log := logger.Logger()

	data, err := json.MarshalIndent(event, "", "	")
	if err != nil {
		log.Error("failed to marshal event",
			zap.Int64("telegram_id", telegramID),
			zap.String("type", event.Type),
			zap.Error(err))
		return
	}

	cl.mu.Lock()
	err = cl.conn.WriteMessage(websocket.TextMessage, data)
	cl.mu.Unlock()

	if err != nil {
		log.Info("failed to push event, dropping connection",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
		h.Detach(telegramID, cl.conn)
		cl.conn.Close()
	}
}

package websocket

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

type Client struct {
	UserID string
	Conn   Conn
}

// peer serializes writes to one connection; the underlying websocket allows
// a single concurrent writer.
type peer struct {
	mu   sync.Mutex
	conn Conn
}

func (p *peer) write(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteJSON(v)
}

// Hub tracks one live connection per user and pushes in-app notifications to it.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*peer
	log     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{clients: make(map[string]*peer), log: log}
}

func (h *Hub) Register(client *Client) {
	h.log.WithField("user_id", client.UserID).Debug("websocket client registered")
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[client.UserID]; ok {
		if old.conn == client.Conn {
			return
		}
		_ = old.conn.Close()
	}
	h.clients[client.UserID] = &peer{conn: client.Conn}
}

func (h *Hub) Unregister(client *Client) {
	h.log.WithField("user_id", client.UserID).Debug("websocket client unregistered")
	h.mu.Lock()
	if p, ok := h.clients[client.UserID]; ok && p.conn == client.Conn {
		delete(h.clients, client.UserID)
	}
	h.mu.Unlock()
}

func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Push writes v to the user's connection, if any. A connection that fails
// the write is closed and forgotten. It reports whether v was delivered.
func (h *Hub) Push(userID string, v any) (bool, error) {
	h.mu.RLock()
	p, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := p.write(v); err != nil {
		_ = p.conn.Close()
		h.mu.Lock()
		if cur, ok := h.clients[userID]; ok && cur == p {
			delete(h.clients, userID)
		}
		h.mu.Unlock()
		return false, err
	}
	return true, nil
}

// Upgrade rejects non-websocket requests before the handshake.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler serves /ws/notifications. The authenticated user id must already
// be in the "user_id" local.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			_ = c.Close()
			return
		}
		client := &Client{UserID: userID, Conn: c}
		h.Register(client)
		defer func() {
			h.Unregister(client)
			_ = c.Close()
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	})
}

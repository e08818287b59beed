package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/observability/telemetry"
	"github.com/sokowatt/sokowatt-web/internal/service/toast"
	"github.com/sokowatt/sokowatt-web/internal/session"
)

// envelope is the wire format pushed to browsers on /ws/updates.
type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub fans toast and session-change events out to every connected
// browser, so already-rendered components (toast area, navigation bar)
// react without a page reload.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	log        *zap.Logger

	mu sync.RWMutex
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	sid  string
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *client),
		unregister: make(chan *client),
		log:        log,
	}
}

// Run owns the client set. Call once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			telemetry.WebsocketClients.Inc()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				telemetry.WebsocketClients.Dec()
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Feed pipes toast and session events into the broadcast channel until
// both sources close.
func (h *Hub) Feed(toasts <-chan toast.Event, sessions <-chan session.Event) {
	for toasts != nil || sessions != nil {
		select {
		case ev, ok := <-toasts:
			if !ok {
				toasts = nil
				continue
			}
			h.push("toast", ev)
		case ev, ok := <-sessions:
			if !ok {
				sessions = nil
				continue
			}
			h.push("session", ev)
		}
	}
}

func (h *Hub) push(kind string, payload interface{}) {
	data, err := json.Marshal(envelope{Type: kind, Payload: payload})
	if err != nil {
		h.log.Error("Failed to encode push event", zap.Error(err))
		return
	}
	h.broadcast <- data
}

// AddClient registers a browser connection and starts its pumps. The
// call blocks until the connection drops, per gofiber/websocket's
// handler contract.
func (h *Hub) AddClient(conn *websocket.Conn, sid string) {
	c := &client{hub: h, conn: conn, send: make(chan []byte, 64), sid: sid}
	c.hub.register <- c

	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		// Browsers don't send anything meaningful here; the loop keeps
		// the connection alive and notices the close.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

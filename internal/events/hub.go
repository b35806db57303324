package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/onefourfourk/community-api/internal/models"
)

// clientBuffer is the per-client outbound queue. A client that falls this far
// behind is disconnected rather than allowed to stall the broadcast.
const clientBuffer = 16

type client struct {
	id   string
	conn *websocket.Conn
	send chan models.Event
}

// Hub is the single "community" broadcast group. It implements Notifier, so
// the announcer can treat the websocket fan-out like any other channel.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Notify queues the event for every connected client. Sends never block:
// a full client buffer means that client is dropped.
func (h *Hub) Notify(_ context.Context, event models.Event) error {
	h.mu.RLock()
	stale := make([]*client, 0)
	for _, c := range h.clients {
		select {
		case c.send <- event:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.logger.Warn().Str("client_id", c.id).Msg("dropping slow websocket client")
		h.remove(c)
	}
	return nil
}

// ClientCount reports the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Join registers a connection with the hub and services it until the peer
// disconnects or the hub closes. It blocks, so handlers call it from the
// request goroutine after the upgrade.
func (h *Hub) Join(conn *websocket.Conn) {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan models.Event, clientBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	h.logger.Info().Str("client_id", c.id).Msg("observer connected")

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop discards inbound frames; the community channel is push-only. Its
// job is noticing the peer going away.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.logger.Info().Str("client_id", c.id).Msg("observer disconnected")
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			h.logger.Warn().Err(err).Str("client_id", c.id).Msg("failed to write event")
			h.remove(c)
			c.conn.Close()
			return
		}
	}
	// send channel closed: the hub let go of this client.
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
	c.conn.Close()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	h.mu.Unlock()
	close(c.send)
}

// Close disconnects all observers. Called on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}

package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/onefourfourk/community-api/internal/events"
	"github.com/onefourfourk/community-api/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type WebSocketHandler struct {
	hub     *events.Hub
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewWebSocketHandler(hub *events.Hub, m *metrics.Metrics, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:     hub,
		metrics: m,
		logger:  logger.With().Str("handler", "websocket").Logger(),
	}
}

// Serve upgrades GET /ws and parks the connection in the community broadcast
// group until the peer disconnects.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade websocket")
		return
	}

	h.metrics.ConnectedObservers.Inc()
	defer h.metrics.ConnectedObservers.Dec()

	h.hub.Join(conn)
}

package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onefourfourk/community-api/internal/models"
)

func newHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Join(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubBroadcastReachesAllObservers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := newHubServer(t, hub)

	first := dialHub(t, server)
	second := dialHub(t, server)
	waitForClients(t, hub, 2)

	err := hub.Notify(context.Background(), models.Event{
		Type:    models.EventStatsUpdate,
		Payload: models.NewCommunityStats(5, 10, 100),
	})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))

		var received struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&received))
		assert.Equal(t, string(models.EventStatsUpdate), received.Type)

		var stats models.CommunityStats
		require.NoError(t, json.Unmarshal(received.Payload, &stats))
		assert.Equal(t, 5, stats.TotalMembers)
		assert.Equal(t, 10, stats.AvailableInvites)
	}
}

func TestHubForgetsDisconnectedObserver(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := newHubServer(t, hub)

	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// Broadcasting to nobody is a no-op, not an error.
	require.NoError(t, hub.Notify(context.Background(), models.Event{Type: models.EventStatsUpdate}))
}

func TestHubDropsObserverWithFullBuffer(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	// Register a client whose queue can never accept an event. No write
	// loop is draining it, which is exactly the stalled-observer case.
	stalled := &client{id: uuid.NewString(), send: make(chan models.Event)}
	hub.mu.Lock()
	hub.clients[stalled.id] = stalled
	hub.mu.Unlock()

	require.NoError(t, hub.Notify(context.Background(), models.Event{Type: models.EventStatsUpdate}))

	assert.Equal(t, 0, hub.ClientCount())
	_, open := <-stalled.send
	assert.False(t, open, "dropped client queue must be closed")
}

func TestHubCloseDisconnectsEveryone(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := newHubServer(t, hub)

	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))

	// A hub stays closed: late joiners are refused.
	late := dialHub(t, server)
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = late.ReadMessage()
	require.Error(t, err)
	assert.Equal(t, 0, hub.ClientCount())
}

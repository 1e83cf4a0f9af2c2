// file: internal/realtime/hub_test.go
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skillforge/internal/events"
)

func TestHubBroadcastsEvents(t *testing.T) {
	bus := events.NewBus(zap.NewNop())
	defer bus.Close()

	hub := NewHub(bus, zap.NewNop())
	defer hub.Close()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	waitForClients(t, hub, 1)

	bus.Publish(context.Background(), events.PointsAwarded{
		UserID:    1,
		EventName: "comment_added",
		Points:    2,
		NewTotal:  2,
		Level:     1,
		Timestamp: time.Now().UTC(),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var received struct {
		Type    string `json:"type"`
		Payload struct {
			UserID   int64 `json:"user_id"`
			NewTotal int64 `json:"new_total"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &received))
	assert.Equal(t, "points_awarded", received.Type)
	assert.Equal(t, int64(1), received.Payload.UserID)
	assert.Equal(t, int64(2), received.Payload.NewTotal)
}

func TestHubRemovesDisconnectedClients(t *testing.T) {
	bus := events.NewBus(zap.NewNop())
	defer bus.Close()

	hub := NewHub(bus, zap.NewNop())
	defer hub.Close()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	waitForClients(t, hub, 1)
	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d connected clients, have %d", want, hub.ClientCount())
}

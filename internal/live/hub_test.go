package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(50*time.Millisecond, zerolog.Nop())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r)
	}))
	t.Cleanup(server.Close)
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestHubBroadcastsToSubscribers(t *testing.T) {
	hub, url := newHubServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 },
		time.Second, 10*time.Millisecond)

	payload := `{"sensor_id":"abc","state":true}`
	hub.Broadcast([]byte(payload))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	messageType, message, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, messageType)
	assert.JSONEq(t, payload, string(message))
}

func TestHubDropsClosedSubscribers(t *testing.T) {
	hub, url := newHubServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestHubBroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub(time.Second, zerolog.Nop())
	hub.Broadcast([]byte("noop"))
	assert.Zero(t, hub.Subscribers())
}

package web

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zizzania-go/zizzaniad/internal/core/domain"
)

func TestEventHubBroadcastsToConnectedClients(t *testing.T) {
	hub := NewEventHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// give the server goroutine a moment to register the connection
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	msg := domain.DispatcherMessage{
		Action: domain.ActionNewClient,
		Client: domain.Address{1, 2, 3, 4, 5, 6},
		BSSID:  domain.Address{6, 5, 4, 3, 2, 1},
	}
	require.NoError(t, hub.Broadcast(msg.Encode()))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "NEW_CLIENT")
	assert.Contains(t, string(data), msg.BSSID.String())
}

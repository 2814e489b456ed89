package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/zizzania-go/zizzaniad/internal/core/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard is served from the same origin as this server; a
		// missing Origin header (non-browser client) is allowed too.
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host
	},
}

// EventMessage is the JSON shape pushed to every connected websocket client.
type EventMessage struct {
	Action string `json:"action"`
	BSSID  string `json:"bssid"`
	Client string `json:"client"`
}

// EventHub fans lifecycle events out to connected websocket clients. It is
// wired as a dispatcher.DispatcherFunc observer: a disconnected browser is
// dropped and its write error never reaches the recognizer. Writes happen
// synchronously in Broadcast, so a slow client delays the caller.
type EventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewEventHub returns an empty hub ready to accept connections.
func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the request to a websocket and registers the
// connection until it errors or the client disconnects.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Drain and discard anything the client sends; this is a push-only
	// feed, but we still need to notice disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast implements dispatcher.DispatcherFunc: it decodes one dispatcher
// record and pushes it as JSON to every connected client, dropping any
// client whose write fails.
func (h *EventHub) Broadcast(record [13]byte) error {
	msg, ok := domain.DecodeDispatcherMessage(record[:])
	if !ok {
		return nil
	}
	payload := EventMessage{
		Action: msg.Action.String(),
		BSSID:  msg.BSSID.String(),
		Client: msg.Client.String(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
	return nil
}

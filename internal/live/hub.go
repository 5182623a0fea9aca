package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub fans measurement events out to websocket subscribers. Dead
// subscribers are evicted by a ping sweep rather than on write error
// alone, so idle connections behind silent middleboxes get cleaned up
// too.
type Hub struct {
	log          zerolog.Logger
	pingInterval time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	upgrader websocket.Upgrader
}

func NewHub(pingInterval time.Duration, log zerolog.Logger) *Hub {
	return &Hub{
		log:          log,
		pingInterval: pingInterval,
		clients:      make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and keeps the connection subscribed until
// it drops.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.log.Debug().Str("remote", conn.RemoteAddr().String()).Int("subscribers", total).Msg("subscriber connected")

	conn.SetReadDeadline(time.Now().Add(h.pingInterval * 2))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pingInterval * 2))
	})

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

// Run sweeps subscribers with pings until the context ends. A failed
// ping drops the connection.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

// Broadcast delivers one payload to every subscriber. Write failures
// drop the subscriber immediately.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug().Err(err).Msg("subscriber write failed")
			h.drop(conn)
		}
	}
}

func (h *Hub) sweep() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		deadline := time.Now().Add(10 * time.Second)
		if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			h.log.Debug().Err(err).Msg("subscriber ping failed")
			h.drop(conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	total := len(h.clients)
	h.mu.Unlock()
	if ok {
		conn.Close()
		h.log.Debug().Int("subscribers", total).Msg("subscriber dropped")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

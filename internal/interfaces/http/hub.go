package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ProgressEvent is one progress update pushed to websocket subscribers
// while a screening pass runs.
type ProgressEvent struct {
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Symbol    string    `json:"symbol,omitempty"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans out progress events to connected websocket clients. A slow
// client is dropped rather than allowed to block the screening pass.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan ProgressEvent

	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan ProgressEvent),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Publish sends an event to every connected client. Implements the
// orchestrator's progress sink.
func (h *Hub) Publish(event ProgressEvent) {
	event.Timestamp = time.Now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, ch := range h.clients {
		select {
		case ch <- event:
		default:
			log.Warn().Str("remote", conn.RemoteAddr().String()).Msg("Dropping slow websocket client")
			close(ch)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and streams progress
// events until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}

	ch := make(chan ProgressEvent, 64)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Websocket client connected")

	// Reader goroutine detects disconnects; messages from clients are ignored.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()

	for event := range ch {
		if err := conn.WriteJSON(event); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	conn.Close()
}

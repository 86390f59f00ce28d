package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"token-radar/internal/observability"
)

// Broadcaster pushes leaderboard snapshots to connected websocket
// clients. A slow or dead client is dropped rather than allowed to
// stall the broadcast.
type Broadcaster struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	metrics  *observability.Metrics

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster(log *zap.Logger, metrics *observability.Metrics) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		log:      log,
		metrics:  metrics,
		clients:  make(map[*websocket.Conn]struct{}),
	}
}

// Broadcast sends v as a JSON text message to every connected client.
func (b *Broadcaster) Broadcast(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		b.log.Error("marshal broadcast payload", zap.Error(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.log.Debug("dropping websocket client", zap.Error(err))
			conn.Close()
			delete(b.clients, conn)
			if b.metrics != nil {
				b.metrics.WSClients.Dec()
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Handler upgrades connections and tracks them until they disconnect.
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()
		if b.metrics != nil {
			b.metrics.WSClients.Inc()
		}

		// Read loop exists only to detect disconnects; clients never
		// send application messages.
		go func() {
			defer func() {
				b.mu.Lock()
				_, tracked := b.clients[conn]
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
				if tracked && b.metrics != nil {
					b.metrics.WSClients.Dec()
				}
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// CloseAll disconnects every client, used during shutdown.
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		conn.Close()
		delete(b.clients, conn)
		if b.metrics != nil {
			b.metrics.WSClients.Dec()
		}
	}
}

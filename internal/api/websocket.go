package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ChatImproVR/particle-life/internal/sim"
)

const (
	// MaxWSConnections caps concurrent viewers.
	MaxWSConnections = 100

	// wsWriteTimeout bounds a slow client's hold on the hub.
	wsWriteTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API serves local visualization clients; origin policy is
	// enforced by the CORS layer in front.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHub fans simulation snapshots out to connected viewers.
type WebSocketHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}

	broadcast chan []byte
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewWebSocketHub creates an idle hub; call Run to start fan-out.
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan []byte, 16),
		stopChan:  make(chan struct{}),
	}
}

// Run delivers broadcast frames until Stop. Dead clients are dropped on
// write failure.
func (h *WebSocketHub) Run() {
	for {
		select {
		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
					wsConnectionsActive.Dec()
					continue
				}
				wsMessagesTotal.Inc()
			}
			h.mu.Unlock()
		case <-h.stopChan:
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every connection and halts Run.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast queues a frame for delivery, dropping it if the hub is
// backed up. Viewers want the latest state, not a backlog.
func (h *WebSocketHub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

// ClientCount returns the number of connected viewers.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades an HTTP request and registers the connection.
func (h *WebSocketHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	if h.ClientCount() >= MaxWSConnections {
		RecordConnectionRejected("ws_limit")
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	wsConnectionsActive.Inc()

	// Reader goroutine: we ignore client messages but must consume
	// them to notice closes.
	go func() {
		defer func() {
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				wsConnectionsActive.Dec()
			}
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// SnapshotMessage is the wire frame pushed to viewers each broadcast.
type SnapshotMessage struct {
	Tick       uint64       `json:"tick"`
	Integrator string       `json:"integrator"`
	Positions  [][3]float64 `json:"positions"`
	Types      []uint8      `json:"types"`
}

// EncodeSnapshot serializes a snapshot for the hub.
func EncodeSnapshot(snap *sim.Snapshot) ([]byte, error) {
	msg := SnapshotMessage{
		Tick:       snap.Tick,
		Integrator: snap.Integrator.String(),
		Positions:  make([][3]float64, len(snap.Positions)),
		Types:      snap.Types,
	}
	for i, p := range snap.Positions {
		msg.Positions[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return json.Marshal(msg)
}

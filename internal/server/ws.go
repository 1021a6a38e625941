package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/detector"
	"github.com/ayusman/signset/internal/keypoints"
	"github.com/ayusman/signset/internal/logging"
)

const (
	clientBuffer = 64
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Event is one recorder event as sent to websocket clients.
type Event struct {
	Type      string          `json:"type"`
	Label     string          `json:"label"`
	Sequence  int             `json:"sequence"`
	Frame     int             `json:"frame"`
	Landmarks string          `json:"landmarks,omitempty"`
	Present   map[string]bool `json:"present,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Hub broadcasts recorder events to websocket clients. It implements recorder.Observer.
type Hub struct {
	log     *slog.Logger
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	closed  bool
}

// NewHub creates a Hub. A nil logger discards output.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = logging.Discard()
	}
	return &Hub{log: log, clients: make(map[*websocket.Conn]chan []byte)}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan []byte, clientBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.clients[conn] = send
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[conn]; ok {
			delete(h.clients, conn)
			close(send)
		}
		h.mu.Unlock()
	}()

	go h.writeLoop(conn, send)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, send <-chan []byte) {
	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			return
		}
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues ev for every client. Clients whose buffer is full miss it.
func (h *Hub) Broadcast(ev Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		select {
		case send <- msg:
		default:
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn, send := range h.clients {
		delete(h.clients, conn)
		close(send)
	}
}

func (h *Hub) SequenceStarted(addr dataset.Address) {
	h.Broadcast(Event{Type: "sequence_started", Label: addr.Label, Sequence: addr.Sequence})
}

func (h *Hub) FrameEncoded(addr dataset.Address, _ *gocv.Mat, result *detector.Result) {
	h.Broadcast(Event{Type: "frame_encoded", Label: addr.Label, Sequence: addr.Sequence, Frame: addr.Frame, Landmarks: result.Summary()})
}

func (h *Hub) FrameStored(addr dataset.Address, v *keypoints.Vector) {
	ev := Event{Type: "frame_stored", Label: addr.Label, Sequence: addr.Sequence, Frame: addr.Frame}
	if v != nil {
		ev.Present = make(map[string]bool, len(keypoints.Groups))
		for _, g := range keypoints.Groups {
			ev.Present[g.String()] = v.Present(g)
		}
	}
	h.Broadcast(ev)
}

func (h *Hub) SequenceCompleted(label string, sequence int) {
	h.Broadcast(Event{Type: "sequence_completed", Label: label, Sequence: sequence})
}

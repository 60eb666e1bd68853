package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/earth-module/tem-dashboard/internal/dashboard"
	"github.com/earth-module/tem-dashboard/internal/state"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = 50 * time.Second
	liveSendBuffer = 8
)

// liveMessage is the envelope pushed to browsers.
type liveMessage struct {
	Type    string          `json:"type"`
	Session string          `json:"session,omitempty"`
	View    *dashboard.View `json:"view,omitempty"`
}

type liveClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// LiveHub fans rendered views out to WebSocket clients.
type LiveHub struct {
	source   StateSource
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*liveClient]struct{}
}

func NewLiveHub(source StateSource, logger *slog.Logger) *LiveHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveHub{
		source: source,
		logger: logger.With("component", "live"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: map[*liveClient]struct{}{},
	}
}

// Run broadcasts every store change until ctx is done.
func (h *LiveHub) Run(ctx context.Context) {
	updates, cancel := h.source.Subscribe()
	defer cancel()
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			msg, err := h.render(snap, "")
			if err != nil {
				h.logger.Error("render live view failed", "err", err)
				continue
			}
			h.broadcast(msg)
		}
	}
}

func (h *LiveHub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams views to the client.
func (h *LiveHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	client := &liveClient{id: uuid.NewString(), conn: conn, send: make(chan []byte, liveSendBuffer)}

	hello, err := h.render(h.source.Snapshot(), client.id)
	if err != nil {
		h.logger.Error("render live view failed", "err", err)
		_ = conn.Close()
		return
	}
	client.send <- hello

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("live client connected", "session", client.id)

	go h.writePump(client)
	go h.readPump(client)
}

func (h *LiveHub) render(snap state.Snapshot, session string) ([]byte, error) {
	view := dashboard.Build(snap, h.source.Catalog())
	msgType := "snapshot"
	if session != "" {
		msgType = "hello"
	}
	return json.Marshal(liveMessage{Type: msgType, Session: session, View: &view})
}

func (h *LiveHub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			h.logger.Debug("dropping slow live client", "session", client.id)
			h.removeLocked(client)
		}
	}
}

func (h *LiveHub) remove(client *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *LiveHub) removeLocked(client *liveClient) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
}

func (h *LiveHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.removeLocked(client)
	}
}

// readPump discards client input and detects disconnects.
func (h *LiveHub) readPump(client *liveClient) {
	defer func() {
		h.remove(client)
		_ = client.conn.Close()
		h.logger.Debug("live client disconnected", "session", client.id)
	}()
	client.conn.SetReadLimit(512)
	_ = client.conn.SetReadDeadline(time.Now().Add(livePongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("live read failed", "session", client.id, "err", err)
			}
			return
		}
	}
}

func (h *LiveHub) writePump(client *liveClient) {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

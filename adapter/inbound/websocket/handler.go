package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ajkula/GoAutoSync/domain/model"
	"github.com/ajkula/GoAutoSync/domain/port/inbound"
	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

const (
	sendBufferSize = 64
	writeWait      = 5 * time.Second
)

// Handler streams upload outcomes to browser clients
type Handler struct {
	stats       inbound.SyncStatsService
	logger      outbound.Logger
	upgrader    websocket.Upgrader
	connections map[*feedConnection]struct{}
	mu          sync.Mutex
	rootCtx     context.Context
}

// feedConnection owns a single client; only its writer goroutine touches conn for writes
type feedConnection struct {
	conn        *websocket.Conn
	send        chan any
	unsubscribe func()
	closeOnce   sync.Once
	done        chan struct{}
}

func NewHandler(stats inbound.SyncStatsService, logger outbound.Logger, allowedOrigins []string, rootCtx context.Context) *Handler {
	return &Handler{
		stats:  stats,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		connections: make(map[*feedConnection]struct{}),
		rootCtx:     rootCtx,
	}
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			return func(r *http.Request) bool { return true }
		}
		allowed[origin] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// non-browser clients send no Origin
		return origin == "" || allowed[origin]
	}
}

// HandleConnection upgrades the request and subscribes it to the upload feed
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Error upgrading to WebSocket", "error", err)
		return
	}

	fc := &feedConnection{
		conn: conn,
		send: make(chan any, sendBufferSize),
		done: make(chan struct{}),
	}

	fc.unsubscribe = h.stats.Subscribe(func(outcome model.UploadOutcome) {
		h.enqueue(fc, outcomeMessage(outcome))
	})

	h.mu.Lock()
	h.connections[fc] = struct{}{}
	h.mu.Unlock()

	h.enqueue(fc, map[string]any{
		"type":  "connected",
		"stats": h.stats.GetStats(r.Context()),
	})

	h.logger.Debug("Upload feed client connected", "remote", r.RemoteAddr)

	go h.writeLoop(fc)
	go h.readLoop(fc)
}

func outcomeMessage(outcome model.UploadOutcome) map[string]any {
	return map[string]any{
		"type":    "outcome",
		"outcome": outcome,
	}
}

// drops the message when the client is too slow so uploads never block on it
func (h *Handler) enqueue(fc *feedConnection, msg any) {
	select {
	case <-fc.done:
	case fc.send <- msg:
	default:
		h.logger.Warn("Upload feed client too slow, dropping message")
	}
}

func (h *Handler) writeLoop(fc *feedConnection) {
	defer h.closeConnection(fc)

	for {
		select {
		case <-h.rootCtx.Done():
			fc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			fc.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Server shutting down"))
			return
		case <-fc.done:
			return
		case msg := <-fc.send:
			fc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := fc.conn.WriteJSON(msg); err != nil {
				h.logger.Debug("Upload feed write failed", "error", err)
				return
			}
		}
	}
}

func (h *Handler) readLoop(fc *feedConnection) {
	defer h.closeConnection(fc)

	for {
		messageType, data, err := fc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket error", "error", err)
			}
			return
		}

		h.handleClientMessage(fc, messageType, data)
	}
}

func (h *Handler) handleClientMessage(fc *feedConnection, messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	var message map[string]any
	if err := json.Unmarshal(data, &message); err != nil {
		h.logger.Debug("Error parsing client message", "error", err)
		return
	}

	switch message["type"] {
	case "ping":
		h.enqueue(fc, map[string]string{"type": "pong"})
	case "stats":
		h.enqueue(fc, map[string]any{
			"type":  "stats",
			"stats": h.stats.GetStats(h.rootCtx),
		})
	}
}

func (h *Handler) closeConnection(fc *feedConnection) {
	fc.closeOnce.Do(func() {
		close(fc.done)
		if fc.unsubscribe != nil {
			fc.unsubscribe()
		}
		fc.conn.Close()

		h.mu.Lock()
		delete(h.connections, fc)
		h.mu.Unlock()
	})
}

// ConnectionCount reports the number of connected feed clients
func (h *Handler) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

func (h *Handler) Cleanup() {
	h.logger.Info("Cleaning up WebSocket handler resources...")

	h.mu.Lock()
	conns := make([]*feedConnection, 0, len(h.connections))
	for fc := range h.connections {
		conns = append(conns, fc)
	}
	h.mu.Unlock()

	for _, fc := range conns {
		h.closeConnection(fc)
	}

	h.logger.Info("WebSocket handler cleanup complete")
}

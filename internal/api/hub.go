package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sightseer/pkg/core"
	"sightseer/pkg/model"
	"sightseer/pkg/registry"
	"sightseer/pkg/render"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBacklog  = 32
	maxInboundSize = 512
)

// AnchorEvent is pushed to stream clients for every placed anchor.
type AnchorEvent struct {
	Type     string      `json:"type"` // "anchor_added"
	Anchor   AnchorDTO   `json:"anchor"`
	BatchID  uuid.UUID   `json:"batch_id"`
	Sight    model.Sight `json:"sight"`
	Distance float64     `json:"distance_m"`
	Bearing  float64     `json:"bearing"`
	Heading  float64     `json:"heading"`
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans placed anchors out to websocket clients. It implements
// core.AnchorSink and never blocks the engine: slow clients lose messages.
type Hub struct {
	registry *registry.Registry
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*streamClient]struct{}

	sent    atomic.Uint64
	dropped atomic.Uint64
}

var _ core.AnchorSink = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(reg *registry.Registry) *Hub {
	return &Hub{
		registry: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The AR client is served from a different origin during development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*streamClient]struct{}),
	}
}

// AnchorAdded implements core.AnchorSink.
func (h *Hub) AnchorAdded(p core.PlacedAnchor) {
	ev := AnchorEvent{
		Type: "anchor_added",
		Anchor: AnchorDTO{
			ID:        p.Anchor.ID,
			Label:     p.Label,
			Transform: p.Anchor.Transform,
			Position:  p.Anchor.Transform.Translation(),
			CreatedAt: p.Anchor.CreatedAt,
			Node:      render.NodeFor(p.Anchor.ID, h.registry, anchorRand(p.Anchor.ID)),
		},
		BatchID:  p.BatchID,
		Sight:    p.Sight,
		Distance: p.Distance,
		Bearing:  p.Bearing,
		Heading:  p.Heading,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to encode anchor event", "error", err)
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
			h.sent.Add(1)
		default:
			h.dropped.Add(1)
			slog.Warn("Stream client too slow, dropping message", "remote", c.conn.RemoteAddr())
		}
	}
}

// ClientCount returns the number of connected stream clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, clientBacklog)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	slog.Info("Stream client connected", "remote", conn.RemoteAddr(), "total", total)

	done := make(chan struct{})
	go h.writePump(c, done)
	h.readPump(c)

	h.mu.Lock()
	delete(h.clients, c)
	total = len(h.clients)
	h.mu.Unlock()
	close(done)
	slog.Info("Stream client disconnected", "remote", conn.RemoteAddr(), "total", total)
}

// readPump discards inbound messages; it exists to process control frames.
func (h *Hub) readPump(c *streamClient) {
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("Stream client read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *streamClient, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}

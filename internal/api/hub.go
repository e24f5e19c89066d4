package api

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/buildwatch/buildwatch/internal/domain"
	"github.com/buildwatch/buildwatch/internal/monitor"
)

// wsMessage is the envelope sent to WebSocket subscribers.
type wsMessage struct {
	Type string          `json:"type"`
	Data domain.LogEntry `json:"data"`
}

// Hub fans new log entries out to connected WebSocket clients. It polls the
// shared buffer on the stream cadence; a client whose send queue fills is
// dropped rather than allowed to stall the others.
type Hub struct {
	buffer *monitor.LogBuffer
	clk    clock.Clock
	log    *zap.Logger

	mu      sync.Mutex
	clients map[*wsClient]bool
}

// NewHub creates a hub over the shared log buffer.
func NewHub(buffer *monitor.LogBuffer, clk clock.Clock, log *zap.Logger) *Hub {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		buffer:  buffer,
		clk:     clk,
		log:     log,
		clients: make(map[*wsClient]bool),
	}
}

// Run broadcasts new entries until ctx is cancelled. The cursor starts at
// hub startup; clients registered later still only receive entries appended
// after they connected because delivery is per-tick.
func (h *Hub) Run(ctx context.Context) {
	ticker := h.clk.Ticker(streamInterval)
	defer ticker.Stop()

	cursor := h.buffer.Total()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			var entries []domain.LogEntry
			entries, cursor = h.buffer.Since(cursor)
			for _, entry := range entries {
				h.broadcast(wsMessage{Type: "log", Data: entry})
			}
		}
	}
}

func (h *Hub) add(client *wsClient) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Debug("websocket client registered", zap.Int("total_clients", total))
}

// remove drops the client and closes its send queue. Safe to call more than
// once per client.
func (h *Hub) remove(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) broadcast(msg wsMessage) {
	h.mu.Lock()
	var full []*wsClient
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			full = append(full, client)
		}
	}
	for _, client := range full {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	if len(full) > 0 {
		h.log.Warn("websocket client queue full, disconnected", zap.Int("dropped", len(full)))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

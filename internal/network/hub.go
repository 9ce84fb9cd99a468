// Package network is the presentation boundary: it pushes session snapshots
// to websocket clients and feeds their player actions into the engine.
package network

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/velist/gametest/internal/engine"
	"github.com/velist/gametest/internal/platform/logger"
	"github.com/velist/gametest/internal/platform/metrics"
)

// Engine is what the hub needs from the runtime.
type Engine interface {
	Dispatch(ctx context.Context, a engine.Action) error
	Snapshot() engine.Snapshot
	Subscribe() (<-chan engine.Snapshot, func())
}

// ServerMessage is every frame the server sends.
type ServerMessage struct {
	Type     string            `json:"type"` // "snapshot", "ack", "rejected"
	Action   engine.ActionType `json:"action,omitempty"`
	Error    string            `json:"error,omitempty"`
	Snapshot *engine.Snapshot  `json:"snapshot,omitempty"`
}

type direct struct {
	client  *Client
	message []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	engine     Engine
	clients    map[*Client]bool
	broadcast  chan []byte
	direct     chan direct
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *logger.Logger
	metrics    *metrics.Collector
}

// NewHub initializes a new WebSocket Hub.
func NewHub(eng Engine, log *logger.Logger) *Hub {
	return &Hub{
		engine:     eng,
		broadcast:  make(chan []byte, 16),
		direct:     make(chan direct, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     log,
		metrics:    metrics.Get(),
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
			if msg, err := encodeSnapshot(h.engine.Snapshot()); err == nil {
				h.deliver(client, msg)
			}
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case d := <-h.direct:
			h.deliver(d.client, d.message)
		case message := <-h.broadcast:
			h.mu.Lock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.Unlock()
			for _, client := range clients {
				h.deliver(client, message)
			}
		}
	}
}

// deliver queues a message for one client, dropping clients that cannot keep up.
func (h *Hub) deliver(client *Client, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- message:
		h.metrics.RecordWSMessage(false)
	default:
		close(client.send)
		delete(h.clients, client)
		h.metrics.RecordWSConnection(-1)
		h.metrics.RecordWSError()
		h.logger.Warn("Dropped slow WebSocket client")
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func encodeSnapshot(snap engine.Snapshot) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: "snapshot", Snapshot: &snap})
}

// BroadcastSnapshot serializes a snapshot and sends it to all connected clients.
func (h *Hub) BroadcastSnapshot(ctx context.Context, snap engine.Snapshot) {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		h.logger.Errorf("Failed to serialize snapshot for WebSocket broadcast: %v", err)
		return
	}
	select {
	case h.broadcast <- payload:
	case <-ctx.Done():
	}
}

// StartSnapshotPump subscribes to the engine and pushes every published
// snapshot to the clients until ctx is done.
func (h *Hub) StartSnapshotPump(ctx context.Context) {
	go func() {
		snaps, cancel := h.engine.Subscribe()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snaps:
				h.BroadcastSnapshot(ctx, snap)
			}
		}
	}()
}

func (h *Hub) reply(ctx context.Context, c *Client, msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Errorf("Failed to serialize reply: %v", err)
		return
	}
	select {
	case h.direct <- direct{client: c, message: payload}:
	case <-ctx.Done():
	}
}

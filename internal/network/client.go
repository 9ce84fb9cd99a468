package network

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/velist/gametest/internal/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 1024
	// Time allowed for the engine to accept an action.
	dispatchWait = 5 * time.Second
)

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// ReadPump decodes player actions and dispatches them to the engine. Each
// action is answered with an ack or a rejection.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-ctx.Done():
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warnf("WebSocket read error: %v", err)
				c.hub.metrics.RecordWSError()
			}
			return
		}
		c.hub.metrics.RecordWSMessage(true)

		var action engine.Action
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Warn("Failed to parse player action from WebSocket. err: " + err.Error())
			c.hub.reply(ctx, c, ServerMessage{Type: "rejected", Error: "malformed action"})
			continue
		}
		c.handleAction(ctx, action)
	}
}

func (c *Client) handleAction(ctx context.Context, action engine.Action) {
	dctx, cancel := context.WithTimeout(ctx, dispatchWait)
	defer cancel()

	if err := c.hub.engine.Dispatch(dctx, action); err != nil {
		c.hub.reply(ctx, c, ServerMessage{Type: "rejected", Action: action.Type, Error: err.Error()})
		return
	}
	// The post-action snapshot travels the same queue as the ack, so the
	// sender sees its own write first.
	snap := c.hub.engine.Snapshot()
	c.hub.reply(ctx, c, ServerMessage{Type: "snapshot", Snapshot: &snap})
	c.hub.reply(ctx, c, ServerMessage{Type: "ack", Action: action.Type})
}

// WritePump pumps messages from the hub to the websocket connection. Every
// message is its own frame.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // The presentation layer is served from another origin in development
	},
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warnf("Failed to upgrade websocket connection: %v", err)
			h.metrics.RecordWSError()
			return
		}

		client := NewClient(h, conn)
		select {
		case h.register <- client:
		case <-ctx.Done():
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump(ctx)
	}
}

package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nextlevelbuilder/goclaw-orchestrator/pkg/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 20 // 1 MiB inbound frame cap
	sendBufferSize = 32
)

// Client is one live WebSocket connection. It runs the standard
// gorilla/websocket read-pump/write-pump pair: reads are done on a
// dedicated goroutine and fed to the server's frame dispatcher, writes are
// serialised through a buffered channel so concurrent SendEvent calls from
// the Connection Manager never race on the single conn.
type Client struct {
	id        string
	sessionID string
	conn      *websocket.Conn
	srv       *Server
	send      chan protocol.EventFrame
	closeOnce chan struct{}
}

// NewClient wraps an upgraded WebSocket connection. sessionID is set by
// the client's "hello" frame, not at connect time; "message" frames may
// name a session but do not change it (spec §4.11: the WS endpoint accepts arbitrary JSON frames; the
// session is whatever the client says it is).
func NewClient(conn *websocket.Conn, srv *Server) *Client {
	return &Client{
		id:        uuid.NewString(),
		conn:      conn,
		srv:       srv,
		send:      make(chan protocol.EventFrame, sendBufferSize),
		closeOnce: make(chan struct{}),
	}
}

// SendEvent enqueues frame for delivery. Never blocks: a client whose
// buffer is full is assumed stalled and the frame is dropped rather than
// stalling the broadcaster.
func (c *Client) SendEvent(frame protocol.EventFrame) {
	select {
	case c.send <- frame:
	default:
		slog.Warn("gateway.client_send_buffer_full", "client", c.id, "session", c.sessionID)
	}
}

// Close releases the client's write goroutine and underlying socket.
func (c *Client) Close() {
	select {
	case <-c.closeOnce:
	default:
		close(c.closeOnce)
	}
	c.conn.Close()
}

// Run drives the client until the connection closes or ctx is cancelled.
// Blocks the caller (gateway.Server.handleWebSocket defers unregister
// around this call).
func (c *Client) Run(ctx context.Context) {
	done := make(chan struct{})
	go c.writePump(done)
	c.readPump(ctx)
	close(done)
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var hdr protocol.InboundFrame
		if err := json.Unmarshal(raw, &hdr); err != nil {
			c.SendEvent(protocol.EventFrame{Type: "error", Payload: "malformed frame"})
			continue
		}

		c.srv.dispatch(ctx, c, hdr.Type, raw)
	}
}

func (c *Client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-c.closeOnce:
			return
		}
	}
}

package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Endpoints a connection can arrive on.
const (
	EndpointBot       = "/ws"
	EndpointSpectator = "/spectate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// CloseReplaced tells a superseded socket why it was dropped.
	CloseReplaced = 4000
)

var ErrConnectionClosed = websocket.ErrCloseSent

// connEvent is how the transport surfaces activity to the session loop.
// Exactly one of opened/frame/closed applies per event.
type connEvent struct {
	conn   *Conn
	frame  []byte
	opened bool
	closed bool
}

// Conn wraps one WebSocket. The read pump forwards frames to the session
// inbox; the write pump drains a buffered mailbox so the session never
// blocks on a slow client.
type Conn struct {
	id       string
	endpoint string
	ws       *websocket.Conn
	send     chan []byte
	inbox    chan<- connEvent
	logger   *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConn wraps an upgraded socket for the given endpoint.
func NewConn(ws *websocket.Conn, endpoint string, inbox chan<- connEvent, logger *log.Logger) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &Conn{
		id:       id,
		endpoint: endpoint,
		ws:       ws,
		send:     make(chan []byte, 256),
		inbox:    inbox,
		logger:   logger.WithPrefix("conn").With("conn", id[:8], "endpoint", endpoint),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ID returns the connection's unique identity.
func (c *Conn) ID() string { return c.id }

// Endpoint returns the path this connection arrived on.
func (c *Conn) Endpoint() string { return c.endpoint }

// Start announces the connection to the session and begins pumping.
func (c *Conn) Start() {
	c.inbox <- connEvent{conn: c, opened: true}
	go c.writePump()
	go c.readPump()
}

// Close tears the socket down. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.ws.Close()
	})
	return err
}

// CloseWithCode sends a close frame with the given code before tearing the
// socket down, so well-behaved clients see the reason.
func (c *Conn) CloseWithCode(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.ws.WriteMessage(websocket.CloseMessage, msg)
	_ = c.Close()
}

// Send queues one prepared frame. A full mailbox closes the connection
// rather than stalling the table.
func (c *Conn) Send(frame []byte) error {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("Send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- frame:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// readPump forwards inbound frames to the session inbox until the socket
// dies, then reports the close.
func (c *Conn) readPump() {
	defer func() {
		_ = c.Close()
		c.inbox <- connEvent{conn: c, closed: true}
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, CloseReplaced) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.inbox <- connEvent{conn: c, frame: data}
	}
}

// writePump drains the mailbox and keeps the socket alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Error("Failed to write frame", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 << 10

	// Frames queued per connection before it is treated as slow
	sendBuffer = 256
)

// Client represents a connected websocket client
type Client struct {
	id   string
	conn *websocket.Conn
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	send   chan []byte
	closed bool

	// rooms is guarded by the owning Hub's lock.
	rooms map[string]bool
}

func newClient(id string, conn *websocket.Conn, log *zap.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:     id,
		conn:   conn,
		log:    log.With(zap.String("conn_id", id)),
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan []byte, sendBuffer),
		rooms:  make(map[string]bool),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// enqueue queues a frame without blocking. It reports false when the
// client is closed or its buffer is full.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// close stops further sends; the write pump then says goodbye to the peer.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.cancel()
}

func (c *Client) sendEvent(event string, payload interface{}) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		c.log.Error("failed to encode frame", zap.String("event", event), zap.Error(err))
		return
	}
	if !c.enqueue(frame) {
		c.log.Warn("dropping frame", zap.String("event", event))
	}
}

func (c *Client) sendError(message string) {
	c.sendEvent(EventError, message)
}

// readPump pumps messages from the websocket connection to dispatch until
// the peer goes away, then calls done.
func (c *Client) readPump(dispatch func(*Client, []byte), done func()) {
	defer func() {
		done()
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
				c.log.Warn("unexpected close", zap.Error(err))
			}
			return
		}
		dispatch(c, message)
	}
}

// writePump pumps queued frames to the websocket connection. Every frame is
// its own websocket message so clients can decode them one by one.
func (c *Client) writePump() {
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Debug("write failed", zap.Error(err))
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

package livefeed

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/neevany/timingsrc/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// defaultEventsPerSecond caps a single connection to this many broadcast
	// frames per second; a burst of due events at the same instant (many
	// cues sharing one crossing timestamp) beyond that is coalesced by
	// simply skipping the over-rate client on that broadcast rather than
	// growing its send buffer unboundedly.
	defaultEventsPerSecond = 50
	defaultBurst           = 100
)

var clientIDCounter atomic.Uint64

// Client is the per-connection half of the hub: a send buffer drained
// by writePump, and a token-bucket limiter that throttles how many
// broadcasts actually reach this connection's buffer.
type Client struct {
	id      uint64
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	limiter *rate.Limiter
}

// NewClient wraps conn for registration with hub, rate-limited to the
// package defaults (50 events/s, burst 100).
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, 256),
		limiter: rate.NewLimiter(rate.Limit(defaultEventsPerSecond), defaultBurst),
	}
}

// ID returns the client's unique, monotonically increasing identifier,
// used only to give broadcast and shutdown ordering a deterministic
// sort key.
func (c *Client) ID() uint64 { return c.id }

// readPump drains (and discards, save for ping/pong keepalive) inbound
// frames until the connection closes, then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected livefeed close error")
			}
			break
		}
		if msg.Type == MessageTypePing {
			select {
			case c.send <- Message{Type: MessageTypePong}:
			default:
			}
		}
	}
}

// writePump drains c.send to the socket and pings on idle, closing the
// connection on the first write error.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write livefeed message")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start launches the client's read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

package presence

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// Write pump timing. pingPeriod must be shorter than the idle window the
// registry uses to prune stale handles, so a healthy connection always
// produces pong traffic before it would be reclaimed.
const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second

	sendBufferSize = 256
)

// ErrSendBufferFull is returned when a client's outbound queue is full.
// The caller treats the handle as dead rather than blocking on it.
var ErrSendBufferFull = errors.New("client send buffer full")

// Conn is the subset of the websocket connection the presence layer
// needs. Tests substitute an in-memory implementation.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live transport connection bound to an authenticated user.
// The handle is distinct from the user id: a user may hold several
// concurrent handles (multiple devices). All outbound traffic goes through
// a buffered channel drained by a single write pump, so a slow consumer
// never blocks the router.
type Client struct {
	Handle   string
	UserID   string
	Username string
	JoinedAt time.Time

	conn     Conn
	send     chan []byte
	lastSeen atomic.Int64
	closed   chan struct{}
	once     sync.Once
}

// NewClient creates a client for the given connection. The write pump is
// not started; the registry starts it on Register.
func NewClient(handle, userID, username string, conn Conn) *Client {
	c := &Client{
		Handle:   handle,
		UserID:   userID,
		Username: username,
		JoinedAt: time.Now(),
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		closed:   make(chan struct{}),
	}
	c.Touch()
	return c
}

// Send queues data for delivery. It never blocks: if the buffer is full or
// the client is closed, an error is returned and the caller decides what
// to do with the handle.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.closed:
		return errors.New("client closed")
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Touch records activity on the connection. Called on every inbound frame
// and pong.
func (c *Client) Touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

// IdleSince returns the time of the last recorded activity.
func (c *Client) IdleSince() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

// Close shuts down the write pump and the underlying connection. Safe to
// call multiple times.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

// writePump drains the send queue onto the connection and keeps the
// transport alive with pings. It owns all writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case data := <-c.send:
			c.setWriteDeadline()
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("[presence] Write failed for connection %s: %v", c.Handle, err)
				return
			}
		case <-ticker.C:
			c.setWriteDeadline()
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeDeadliner is implemented by real websocket connections.
type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// setWriteDeadline applies the write deadline when the underlying
// connection supports it.
func (c *Client) setWriteDeadline() {
	if d, ok := c.conn.(writeDeadliner); ok {
		_ = d.SetWriteDeadline(time.Now().Add(writeWait))
	}
}

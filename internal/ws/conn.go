package ws

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 128
)

// ErrConnClosed is returned by Enqueue once the socket is gone.
var ErrConnClosed = errors.New("ws: connection closed")

// Conn wraps a websocket and serializes outbound writes through a buffered
// channel, so any goroutine may enqueue payloads without racing the write
// loop. Payloads enqueued on one Conn are written in FIFO order.
type Conn struct {
	ID string

	ws     *websocket.Conn
	send   chan []byte
	once   sync.Once
	closed chan struct{}
}

// NewConn wraps an upgraded websocket.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{
		ID:     newConnID(),
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
}

// Start launches the write loop. Call exactly once per connection.
func (c *Conn) Start() {
	go c.writeLoop()
}

// Enqueue hands a payload to the write loop. A full buffer means the client
// stopped draining; the connection is closed so backpressure stays bounded.
func (c *Conn) Enqueue(payload []byte) error {
	select {
	case <-c.closed:
		return ErrConnClosed
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return ErrConnClosed
	}
}

// Close tears down the socket and stops the write loop. Safe to call from
// multiple goroutines; only the first call acts.
func (c *Conn) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.closed)
		deadline := time.Now().Add(writeWait)
		_ = c.ws.SetWriteDeadline(deadline)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
	})
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case payload := <-c.send:
			if err := c.write(websocket.TextMessage, payload); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Conn) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

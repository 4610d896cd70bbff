package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Conn wraps one websocket session. Writes go through the buffered send
// channel so the write pump is the socket's only writer.
type Conn struct {
	ID     string
	UserID string // bound on first ack, read/written only by the read pump

	sock *websocket.Conn
	send chan []byte
	log  *zap.Logger

	mu     sync.Mutex
	closed bool
}

func newConn(id string, sock *websocket.Conn, log *zap.Logger) *Conn {
	return &Conn{
		ID:   id,
		sock: sock,
		send: make(chan []byte, sendBuffer),
		log:  log,
	}
}

// enqueue hands a frame to the write pump. A full buffer drops the session:
// a client that cannot drain its queue is not worth blocking the table for.
// The mutex covers both the channel send and the teardown so a send can
// never race the close; the non-blocking send keeps the critical section
// short.
func (c *Conn) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("send buffer full, dropping session", zap.String("session", c.ID))
		c.closed = true
		close(c.send)
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump pulls inbound frames and hands them to the server until the
// socket dies.
func (c *Conn) readPump(srv *Server) {
	defer srv.dropConn(c)

	c.sock.SetReadLimit(maxMessageSize)
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("socket read failed", zap.String("session", c.ID), zap.Error(err))
			}
			return
		}
		srv.handleMessage(c, data)
	}
}

// writePump drains the send channel to the socket and keeps the connection
// alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.sock.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package gateway

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/cmd/api/internal/hub"
)

const maxMessageSize = 4 * 1024

// ClientAdapter bridges one WebSocket connection to the hub. The server only
// pushes events; anything the client sends is treated as keepalive traffic
// and discarded.
type ClientAdapter struct {
	id   string
	conn net.Conn
	hub  *hub.Hub
	send chan []byte

	mu     sync.Mutex
	closed bool

	logger *zap.Logger

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewClient(conn net.Conn, h *hub.Hub, logger *zap.Logger) *ClientAdapter {
	return &ClientAdapter{
		id:         uuid.NewString(),
		conn:       conn,
		hub:        h,
		send:       make(chan []byte, 256),
		logger:     logger,
		writeWait:  5 * time.Second,
		pongWait:   60 * time.Second,
		pingPeriod: 50 * time.Second,
	}
}

func (c *ClientAdapter) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *ClientAdapter) ID() string { return c.id }

// Close marks the adapter dead and closes the send channel; the write pump
// closes the underlying connection.
func (c *ClientAdapter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// TrySend hands a payload to the write pump without blocking. A full buffer
// means the consumer is too slow for the stream; the hub handles the error
// by dropping the subscriber.
func (c *ClientAdapter) TrySend(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("subscriber closed")
	}
	select {
	case c.send <- b:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (c *ClientAdapter) readPump() {
	defer func() {
		c.hub.Deregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			return
		}

		if header.Length > maxMessageSize {
			c.logger.Warn("client frame too big",
				zap.String("subscriber", c.id), zap.Int64("size", header.Length))
			return
		}

		// Client payloads are keepalive noise; consume and discard
		if _, err := io.CopyN(io.Discard, c.conn, header.Length); err != nil {
			return
		}

		switch header.OpCode {
		case ws.OpClose:
			return
		case ws.OpPong, ws.OpPing, ws.OpText, ws.OpBinary:
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		}
	}
}

func (c *ClientAdapter) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.conn.Write(ws.CompiledClose)
				return
			}
			if err := wsutil.WriteServerText(c.conn, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpPing, nil); err != nil {
				return
			}
		}
	}
}

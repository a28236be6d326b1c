package ws

import (
	"log/slog"
	"sync"
	"time"

	"consult-signaling/internal/signaling"

	"github.com/gorilla/websocket"
)

const (
	writeWait          = 10 * time.Second
	maxMessageSize     = 64 << 10 // SDP blobs can be a few KB
	pongWaitMultiplier = 2
)

// Client is one WebSocket connection. Outbound frames go through a buffered
// queue drained by writePump; Send never blocks.
type Client struct {
	id   string
	conn *websocket.Conn
	log  *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(id string, conn *websocket.Conn, buffer int, log *slog.Logger) *Client {
	return &Client{
		id:   id,
		conn: conn,
		log:  log,
		send: make(chan []byte, buffer),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Send(m signaling.Message) error {
	b, err := signaling.Encode(m)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return signaling.ErrConnClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		return signaling.ErrSendQueueFull
	}
}

// close stops the writer after it has flushed what is queued.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump owns all writes to the socket, including pings.
func (c *Client) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Debug("ws set write deadline failed", "err", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("ws write failed", "err", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Debug("ws ping failed", "err", err)
				return
			}
		}
	}
}

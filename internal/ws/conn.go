package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// defaultWriteTimeout bounds every outbound frame so one stalled client
// cannot pin a publisher goroutine.
const defaultWriteTimeout = 10 * time.Second

// subscriberConn adapts a websocket connection to the relay's Subscriber
// contract. Gorilla connections allow one concurrent writer, so all sends
// serialize through the mutex.
type subscriberConn struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func newSubscriberConn(conn *websocket.Conn, writeTimeout time.Duration) *subscriberConn {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &subscriberConn{conn: conn, writeTimeout: writeTimeout}
}

func (c *subscriberConn) SendText(payload []byte) error {
	return c.write(websocket.TextMessage, payload)
}

func (c *subscriberConn) SendBinary(chunk []byte) error {
	return c.write(websocket.BinaryMessage, chunk)
}

func (c *subscriberConn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// sendJSON marshals and sends a control frame, serialized with the relay
// sends.
func (c *subscriberConn) sendJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

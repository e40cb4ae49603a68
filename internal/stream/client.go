package stream

import (
	"sync"
	"time"

	"broadcastmusic/internal/events"

	"github.com/gorilla/websocket"
)

// clientConn serialises writes from the session and the command reader.
type clientConn struct {
	rawConn *websocket.Conn
	mu      sync.Mutex
}

func (c *clientConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteJSON(v)
}

func (c *clientConn) WriteEvent(ev events.Event) error { return c.writeJSON(ev) }

func (c *clientConn) close(reason string) {
	c.mu.Lock()
	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.rawConn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
	c.mu.Unlock()
	_ = c.rawConn.Close()
}

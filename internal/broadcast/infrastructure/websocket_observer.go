package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	closeWait = time.Second
	// readLimit caps client frames; the push channel is server to client only.
	readLimit = 512
)

// WebSocketObserver adapts a websocket connection to broadcast/domain.Observer.
type WebSocketObserver struct {
	id   string
	conn *websocket.Conn

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewWebSocketObserver(conn *websocket.Conn) *WebSocketObserver {
	conn.SetReadLimit(readLimit)
	return &WebSocketObserver{
		id:   uuid.NewString(),
		conn: conn,
	}
}

func (o *WebSocketObserver) ID() string {
	return o.id
}

// Send writes payload as a single text frame. The write deadline follows ctx.
func (o *WebSocketObserver) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := o.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return o.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close sends a close frame when possible and releases the connection.
func (o *WebSocketObserver) Close() error {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = o.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
		o.mu.Unlock()
		o.closeErr = o.conn.Close()
	})
	return o.closeErr
}

// Drain reads and discards client frames until the connection fails. It
// returns when the peer goes away so the caller can unregister.
func (o *WebSocketObserver) Drain() error {
	// Clear any deadline left over from the HTTP server's read timeout.
	if err := o.conn.SetReadDeadline(time.Time{}); err != nil {
		return err
	}
	for {
		if _, _, err := o.conn.ReadMessage(); err != nil {
			return err
		}
	}
}

package rtm

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/0xpablo/slackkit/pkg/domain/interfaces"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrAlreadyConnected = goerr.New("transport already connected")
	ErrClosed           = goerr.New("transport is not connected")
)

const defaultWriteTimeout = 10 * time.Second

// WebSocket is a Transport over a gorilla/websocket connection. Frames are
// read on a dedicated goroutine and handed to the handler in order.
type WebSocket struct {
	dialer       *websocket.Dialer
	writeTimeout time.Duration

	mu  sync.Mutex
	cur *wsConn
}

// wsConn is one dial. A Disconnect detaches it immediately so that a new
// Connect can start while the old read loop is still unwinding.
type wsConn struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	closing bool
	writeMu sync.Mutex
}

func (c *wsConn) get() (*websocket.Conn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn, c.closing
}

var _ interfaces.Transport = (*WebSocket)(nil)

type WebSocketOption func(*WebSocket)

func WithDialer(d *websocket.Dialer) WebSocketOption {
	return func(w *WebSocket) {
		w.dialer = d
	}
}

func WithWriteTimeout(d time.Duration) WebSocketOption {
	return func(w *WebSocket) {
		w.writeTimeout = d
	}
}

func NewWebSocket(opts ...WebSocketOption) *WebSocket {
	w := &WebSocket{
		dialer:       websocket.DefaultDialer,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Connect dials url in the background. Success is reported with OnOpen,
// failure with OnError.
func (w *WebSocket) Connect(ctx context.Context, url string, handler interfaces.TransportHandler) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cur != nil {
		return goerr.Wrap(ErrAlreadyConnected, "connect called twice")
	}
	c := &wsConn{}
	w.cur = c

	go w.run(ctx, c, url, handler)
	return nil
}

func (w *WebSocket) detach(c *wsConn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == c {
		w.cur = nil
	}
}

func (w *WebSocket) run(ctx context.Context, c *wsConn, url string, handler interfaces.TransportHandler) {
	conn, resp, err := w.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		w.detach(c)
		handler.OnError(goerr.Wrap(err, "failed to dial websocket", goerr.V("url", url)))
		return
	}

	c.mu.Lock()
	closing := c.closing
	if !closing {
		c.conn = conn
	}
	c.mu.Unlock()
	if closing {
		_ = conn.Close()
		handler.OnClose()
		return
	}

	logging.From(ctx).Debug("websocket connected", "url", url)
	handler.OnOpen()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			w.detach(c)
			_ = conn.Close()

			_, closing := c.get()
			if closing || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, net.ErrClosed) {
				handler.OnClose()
			} else {
				handler.OnError(goerr.Wrap(err, "websocket read failed"))
			}
			return
		}
		handler.OnText(string(data))
	}
}

// Disconnect closes the current connection. Its read loop reports OnClose.
func (w *WebSocket) Disconnect(ctx context.Context) error {
	w.mu.Lock()
	c := w.cur
	w.cur = nil
	w.mu.Unlock()

	if c == nil {
		return nil
	}

	c.mu.Lock()
	c.closing = true
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		// still dialing; run closes the connection once the dial returns
		return nil
	}

	c.writeMu.Lock()
	deadline := time.Now().Add(w.writeTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		logging.From(ctx).Debug("failed to send close frame", "error", err.Error())
	}
	c.writeMu.Unlock()

	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return goerr.Wrap(err, "failed to close websocket")
	}
	return nil
}

// Send writes one text frame
func (w *WebSocket) Send(ctx context.Context, frame []byte) error {
	w.mu.Lock()
	c := w.cur
	w.mu.Unlock()

	var conn *websocket.Conn
	if c != nil {
		conn, _ = c.get()
	}
	if conn == nil {
		return goerr.Wrap(ErrClosed, "cannot send frame")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(w.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return goerr.Wrap(err, "failed to set write deadline")
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return goerr.Wrap(err, "failed to write frame", goerr.V("size", len(frame)))
	}
	return nil
}

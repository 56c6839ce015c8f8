package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

// WindowConn is a connection to the runtime's window endpoint.
// It lets a non-browser process act as a browser window: messages routed to
// the window arrive on Messages, and Send hands messages to the runtime.
type WindowConn struct {
	windowID string
	conn     *websocket.Conn
	messages chan WebMessage
	errs     chan error
	writeMu  sync.Mutex
	done     chan struct{}
	once     sync.Once
}

// ConnectWindow opens the window endpoint for windowID. An empty windowID lets the runtime assign one.
func (c *Client) ConnectWindow(ctx context.Context, windowID string) (*WindowConn, error) {
	if c.token == "" {
		return nil, ErrNotAuthenticated
	}

	wsURL := c.baseURL.JoinPath("/ws")
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	query := url.Values{}
	query.Set("token", c.token)
	if windowID != "" {
		query.Set("windowId", windowID)
	}
	wsURL.RawQuery = query.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect window: %w", err)
	}

	w := &WindowConn{
		windowID: windowID,
		conn:     conn,
		messages: make(chan WebMessage, 64),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
	go w.readLoop()
	return w, nil
}

// Messages returns the channel of messages routed to this window. It is closed when the connection ends.
func (w *WindowConn) Messages() <-chan WebMessage {
	return w.messages
}

// Errors returns the channel carrying the error that ended the connection
func (w *WindowConn) Errors() <-chan error {
	return w.errs
}

// Send hands a message to the runtime for routing
func (w *WindowConn) Send(msg *messaging.Message) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteJSON(msg)
}

// Close closes the connection
func (w *WindowConn) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.writeMu.Lock()
		_ = w.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		w.writeMu.Unlock()
		err = w.conn.Close()
	})
	return err
}

func (w *WindowConn) readLoop() {
	defer close(w.messages)
	for {
		var msg WebMessage
		if err := w.conn.ReadJSON(&msg); err != nil {
			select {
			case <-w.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					w.errs <- err
				}
			}
			return
		}

		select {
		case w.messages <- msg:
		case <-w.done:
			return
		}
	}
}

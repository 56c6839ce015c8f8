package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

const (
	WriteWait      = 10 * time.Second    // max time to write a frame to the window
	PongWait       = 60 * time.Second    // max time to wait for a pong before the window is considered gone
	PingPeriod     = (PongWait * 9) / 10 // ping before the pong wait expires
	MaxMessageSize = 1 << 20             // maximum inbound frame size
	SendBuffer     = 64                  // outbound frames buffered per window
)

// window is one connected browser window
type window struct {
	id   string
	conn *websocket.Conn
	hub  *WindowHub
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWindow(id string, conn *websocket.Conn, hub *WindowHub) *window {
	return &window{
		id:   id,
		conn: conn,
		hub:  hub,
		send: make(chan []byte, SendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue hands a frame to the write pump
func (w *window) enqueue(ctx context.Context, frame []byte) error {
	select {
	case w.send <- frame:
		return nil
	case <-w.done:
		return ErrWindowNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *window) close() {
	w.once.Do(func() {
		close(w.done)
		_ = w.conn.Close()
	})
}

// readPump forwards messages posted by the window to the hub's receiver
func (w *window) readPump() {
	defer func() {
		w.hub.unregister(w)
		w.close()
	}()

	w.conn.SetReadLimit(MaxMessageSize)
	_ = w.conn.SetReadDeadline(time.Now().Add(PongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.hub.warn("window read failed", slog.String("windowId", w.id), slog.Any("error", err))
			}
			return
		}

		var msg messaging.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			w.hub.warn("dropping malformed message from window", slog.String("windowId", w.id), slog.Any("error", err))
			continue
		}
		w.hub.receive(&msg, w.id)
	}
}

// writePump writes queued frames and keeps the connection alive
func (w *window) writePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		w.close()
	}()

	for {
		select {
		case frame := <-w.send:
			_ = w.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := w.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = w.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-w.done:
			_ = w.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(WriteWait))
			return
		}
	}
}

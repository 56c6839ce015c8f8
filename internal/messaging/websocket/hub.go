// Package websocket delivers joynr messages to browser windows connected over WebSocket.
//
// WindowHub is the web messaging stub shared by all browser messaging stubs of a
// runtime. Each frame sent to a window is the JSON form of browser.WebMessage, so the
// window id travels with every message and is null when no window was specified.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zicheng-pan/joynr/internal/messaging/browser"
	"github.com/zicheng-pan/joynr/pkg/messaging"
)

var (
	// ErrWindowNotConnected is returned when the destination window is not connected
	ErrWindowNotConnected = errors.New("window not connected")
	// ErrHubClosed is returned when the hub has been closed
	ErrHubClosed = errors.New("window hub is closed")
)

// WindowIDParam is the query parameter a window announces its id with
const WindowIDParam = "windowId"

// WindowHub implements browser.WebMessagingStub for windows connected over WebSocket.
// It is safe for concurrent use.
type WindowHub struct {
	mu       sync.RWMutex
	windows  map[string]*window // windowID -> window
	receiver messaging.Receiver
	logger   *slog.Logger
	upgrader websocket.Upgrader
	closed   bool
}

// NewWindowHub creates a hub. Messages posted by windows are handed to receiver; both receiver and logger may be nil.
func NewWindowHub(receiver messaging.Receiver, logger *slog.Logger) *WindowHub {
	return &WindowHub{
		windows:  make(map[string]*window),
		receiver: receiver,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origin checks are left to the CORS layer in front of the hub
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetReceiver sets where messages posted by windows go
func (h *WindowHub) SetReceiver(receiver messaging.Receiver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.receiver = receiver
}

// Transmit delivers msg to the window named by msg.WindowID, or to every connected window when it is nil.
func (h *WindowHub) Transmit(ctx context.Context, msg browser.WebMessage) error {
	frame, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode web message: %w", err)
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	var targets []*window
	if msg.WindowID != nil {
		if w, ok := h.windows[*msg.WindowID]; ok {
			targets = append(targets, w)
		}
	} else {
		for _, w := range h.windows {
			targets = append(targets, w)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		if msg.WindowID != nil {
			return fmt.Errorf("%w: %s", ErrWindowNotConnected, *msg.WindowID)
		}
		return fmt.Errorf("%w: no windows connected", ErrWindowNotConnected)
	}

	var errs []error
	for _, w := range targets {
		if err := w.enqueue(ctx, frame); err != nil {
			errs = append(errs, fmt.Errorf("window %s: %w", w.id, err))
		}
	}
	return errors.Join(errs...)
}

// ServeHTTP upgrades the request to a WebSocket and registers the window.
// The window id is taken from the windowId query parameter, or generated when absent.
func (h *WindowHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	windowID := r.URL.Query().Get(WindowIDParam)
	if windowID == "" {
		windowID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		h.warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	win := newWindow(windowID, conn, h)
	if err := h.register(win); err != nil {
		win.close()
		return
	}

	go win.writePump()
	go win.readPump()
}

// Windows returns the ids of the connected windows
func (h *WindowHub) Windows() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.windows))
	for id := range h.windows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// StubFactory returns a factory creating browser stubs that deliver through this hub
func (h *WindowHub) StubFactory() *browser.StubFactory {
	return browser.NewStubFactory(h)
}

// Close disconnects every window
func (h *WindowHub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	windows := h.windows
	h.windows = make(map[string]*window)
	h.mu.Unlock()

	for _, w := range windows {
		w.close()
	}
	return nil
}

func (h *WindowHub) register(w *window) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	// a reconnecting window replaces its stale connection
	if previous, ok := h.windows[w.id]; ok {
		previous.close()
	}
	h.windows[w.id] = w
	h.debug("window connected", slog.String("windowId", w.id))
	return nil
}

func (h *WindowHub) unregister(w *window) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.windows[w.id]; ok && current == w {
		delete(h.windows, w.id)
		h.debug("window disconnected", slog.String("windowId", w.id))
	}
}

func (h *WindowHub) receive(msg *messaging.Message, windowID string) {
	h.mu.RLock()
	receiver := h.receiver
	h.mu.RUnlock()

	if receiver == nil {
		return
	}
	if err := receiver.Receive(context.Background(), msg); err != nil {
		h.warn("failed to route message from window",
			slog.String("windowId", windowID),
			slog.String("messageId", msg.ID),
			slog.Any("error", err))
	}
}

func (h *WindowHub) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func (h *WindowHub) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}

// Verify that WindowHub implements the WebMessagingStub interface at compile time
var _ browser.WebMessagingStub = (*WindowHub)(nil)

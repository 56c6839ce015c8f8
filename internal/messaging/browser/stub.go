// Package browser implements the messaging stub for participants living in browser windows.
//
// The stub is a one-hop adapter: every Transmit is forwarded once, synchronously, to a
// shared WebMessagingStub together with the destination window id configured at
// construction. The window id is always part of the forwarded WebMessage; a nil
// WindowID is the explicit marker for "no window specified".
package browser

import (
	"context"
	"errors"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

// ErrNoWebMessagingStub is returned by Transmit when the stub was built without a transport handle
var ErrNoWebMessagingStub = errors.New("browser messaging stub has no web messaging stub")

// WebMessage is the record forwarded to the web messaging transport.
type WebMessage struct {
	// WindowID is the destination window, nil when unspecified
	WindowID *string `json:"windowId"`

	// Message is the message handed to Transmit, unchanged
	Message *messaging.Message `json:"message"`
}

// WebMessagingStub delivers messages into browser windows.
// Implementations must be safe for concurrent use; one handle is shared by many stubs.
type WebMessagingStub interface {
	Transmit(ctx context.Context, msg WebMessage) error
}

// Settings configures a MessagingStub.
type Settings struct {
	// WebMessagingStub is the shared transport handle. It is borrowed, not owned.
	WebMessagingStub WebMessagingStub

	// WindowID is the destination window; optional
	WindowID *string
}

// MessagingStub implements messaging.MessagingStub on top of a WebMessagingStub.
type MessagingStub struct {
	webMessagingStub WebMessagingStub
	windowID         *string
}

// NewMessagingStub creates a stub forwarding to settings.WebMessagingStub.
func NewMessagingStub(settings Settings) *MessagingStub {
	return &MessagingStub{
		webMessagingStub: settings.WebMessagingStub,
		windowID:         settings.WindowID,
	}
}

// Transmit forwards msg together with the configured window id.
// Errors from the web messaging stub are returned unchanged.
func (s *MessagingStub) Transmit(ctx context.Context, msg *messaging.Message) error {
	if s.webMessagingStub == nil {
		return ErrNoWebMessagingStub
	}
	return s.webMessagingStub.Transmit(ctx, WebMessage{
		WindowID: s.windowID,
		Message:  msg,
	})
}

// WindowID returns the configured window id, nil when unspecified
func (s *MessagingStub) WindowID() *string {
	return s.windowID
}

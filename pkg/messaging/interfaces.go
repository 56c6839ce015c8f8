package messaging

import (
	"context"
	"errors"
)

var (
	// ErrUnsupportedAddress is returned by a StubFactory asked for an address kind it does not handle
	ErrUnsupportedAddress = errors.New("unsupported address")
)

// MessagingStub transmits messages to one destination over one transport.
type MessagingStub interface {
	// Transmit hands the message to the transport. Transport errors are returned unchanged.
	Transmit(ctx context.Context, msg *Message) error
}

// MessagingStubFunc adapts a function to MessagingStub
type MessagingStubFunc func(ctx context.Context, msg *Message) error

// Transmit calls f(ctx, msg)
func (f MessagingStubFunc) Transmit(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// StubFactory creates messaging stubs for the addresses of one transport.
type StubFactory interface {
	// Kind returns the address kind this factory handles
	Kind() AddressKind

	// Create returns a stub delivering to address
	Create(address Address) (MessagingStub, error)
}

// Receiver accepts messages arriving from a transport.
type Receiver interface {
	Receive(ctx context.Context, msg *Message) error
}

// ReceiverFunc adapts a function to Receiver
type ReceiverFunc func(ctx context.Context, msg *Message) error

// Receive calls f(ctx, msg)
func (f ReceiverFunc) Receive(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

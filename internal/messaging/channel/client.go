package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

// ErrNilMessage is returned when a nil message is transmitted
var ErrNilMessage = errors.New("message cannot be nil")

// Client transmits messages to one remote channel. It implements messaging.MessagingStub.
type Client struct {
	address messaging.ChannelAddress
	conn    *grpc.ClientConn
	timeout time.Duration
}

// Dial creates a client for address. Without options the connection is insecure.
// The connection is established lazily on the first Transmit.
func Dial(address messaging.ChannelAddress, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(address.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel client for %s: %w", address, err)
	}
	return &Client{address: address, conn: conn, timeout: timeout}, nil
}

// Transmit sends msg to the remote channel
func (c *Client) Transmit(ctx context.Context, msg *messaging.Message) error {
	if msg == nil {
		return ErrNilMessage
	}

	data, err := encodeFrame(c.address.ChannelID, msg)
	if err != nil {
		return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.conn.Invoke(ctx, transmitMethod, wrapperspb.Bytes(data), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("channel %s: %w", c.address, err)
	}
	return nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// StubFactory creates channel clients for messaging.ChannelAddress destinations
type StubFactory struct {
	timeout time.Duration
	opts    []grpc.DialOption
}

// NewStubFactory creates a factory whose clients use timeout and opts
func NewStubFactory(timeout time.Duration, opts ...grpc.DialOption) *StubFactory {
	return &StubFactory{timeout: timeout, opts: opts}
}

// Kind returns messaging.KindChannel
func (f *StubFactory) Kind() messaging.AddressKind {
	return messaging.KindChannel
}

// Create dials the channel address
func (f *StubFactory) Create(address messaging.Address) (messaging.MessagingStub, error) {
	channelAddress, ok := address.(messaging.ChannelAddress)
	if !ok {
		return nil, fmt.Errorf("%w: channel factory cannot handle %s", messaging.ErrUnsupportedAddress, address)
	}
	return Dial(channelAddress, f.timeout, f.opts...)
}

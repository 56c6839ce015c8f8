package messagerouter

import (
	"context"
	"errors"
	"io"

	"github.com/zicheng-pan/joynr/pkg/messaging"
	"github.com/zicheng-pan/joynr/pkg/routingtable"
)

var (
	// ErrMessageExpired is returned when a message is routed after its expiry date
	ErrMessageExpired = errors.New("message expired")
	// ErrNoStubFactory is returned when no stub factory handles an address kind
	ErrNoStubFactory = errors.New("no stub factory for address kind")
)

// MessageRouter routes joynr messages to their next hop.
type MessageRouter interface {
	io.Closer
	messaging.Receiver

	// Route delivers the message to its recipient, or queues it when the recipient is unknown.
	// Transport errors are returned wrapped.
	Route(ctx context.Context, msg *messaging.Message) error

	// AddNextHop registers the address of a participant and flushes messages queued for it.
	AddNextHop(ctx context.Context, participantID string, address messaging.Address) error

	// RemoveNextHop removes the participant's address
	RemoveNextHop(ctx context.Context, participantID string) error

	// AddMulticastReceiver registers a participant as receiver of a multicast
	AddMulticastReceiver(ctx context.Context, multicastID, receiverParticipantID string) error

	// RemoveMulticastReceiver removes a participant from a multicast
	RemoveMulticastReceiver(ctx context.Context, multicastID, receiverParticipantID string) error

	// GetRoutingTable returns the router's routing table
	GetRoutingTable() routingtable.RoutingTable

	// GetHealth returns the health status of the router
	GetHealth(ctx context.Context) (HealthStatus, error)
}

// HealthStatus represents the state of a message router
type HealthStatus struct {
	// Healthy indicates if the router accepts messages
	Healthy bool `json:"healthy"`

	// Routes is the number of routed participants
	Routes int `json:"routes"`

	// QueuedMessages is the number of messages waiting for a route
	QueuedMessages int `json:"queuedMessages"`

	// MulticastReceivers is the number of registered multicast receivers
	MulticastReceivers int `json:"multicastReceivers"`

	// Message provides additional health information
	Message string `json:"message,omitempty"`
}

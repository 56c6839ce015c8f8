package httpapi

import (
	"encoding/json"
	"time"

	"github.com/zicheng-pan/joynr/pkg/messagerouter"
	"github.com/zicheng-pan/joynr/pkg/messaging"
)

// Request/Response types for the HTTP API

// AuthRequest represents a login request
type AuthRequest struct {
	ClientID string `json:"clientId"`
}

// AuthResponse represents a login response
type AuthResponse struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"clientId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SendMessageRequest asks the runtime to route a message
type SendMessageRequest struct {
	Type messaging.MessageType `json:"type"`

	// Sender defaults to the authenticated client id
	Sender    string `json:"sender,omitempty"`
	Recipient string `json:"recipient"`

	// TTLMs sets the expiry relative to now; zero means the message never expires
	TTLMs   int64             `json:"ttlMs,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// Payload is any JSON value, forwarded as raw bytes
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SendMessageResponse is returned once the router accepted the message
type SendMessageResponse struct {
	MessageID string    `json:"messageId"`
	Recipient string    `json:"recipient"`
	Accepted  time.Time `json:"accepted"`
}

// RouteRequest registers the address of a participant
type RouteRequest struct {
	ParticipantID string                `json:"participantId"`
	Address       messaging.AddressSpec `json:"address"`
}

// RouteResponse is a single routing entry
type RouteResponse struct {
	ParticipantID string                `json:"participantId"`
	Address       messaging.AddressSpec `json:"address"`
	Description   string                `json:"description"`
}

// RoutesListResponse lists the routing table
type RoutesListResponse struct {
	Routes []RouteResponse `json:"routes"`
}

// MulticastSubscribeRequest registers a multicast subscription.
// Request is the subscription record: multicastId, subscribedToName, subscriptionId and optional qos.
type MulticastSubscribeRequest struct {
	ReceiverParticipantID string `json:"receiverParticipantId"`
	Request               any    `json:"request"`
}

// MulticastSubscriptionResponse describes a registered multicast subscription
type MulticastSubscriptionResponse struct {
	SubscriptionID        string         `json:"subscriptionId"`
	MulticastID           string         `json:"multicastId"`
	SubscribedToName      string         `json:"subscribedToName"`
	ReceiverParticipantID string         `json:"receiverParticipantId"`
	RegisteredAt          time.Time      `json:"registeredAt"`
	Request               map[string]any `json:"request"`
}

// MulticastSubscriptionsListResponse lists the registered multicast subscriptions
type MulticastSubscriptionsListResponse struct {
	Subscriptions []MulticastSubscriptionResponse `json:"subscriptions"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	messagerouter.HealthStatus
	RuntimeID        string `json:"runtimeId"`
	ConnectedWindows int    `json:"connectedWindows"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

package httpclient

import (
	"encoding/json"
	"time"

	"github.com/zicheng-pan/joynr/pkg/messagerouter"
	"github.com/zicheng-pan/joynr/pkg/messaging"
)

// Config holds client configuration
type Config struct {
	// ServerURL is the base URL of the runtime HTTP API (e.g., "http://localhost:8080")
	ServerURL string

	// ClientID is the identifier for this client
	ClientID string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// SetDefaults sets reasonable default values for the config
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// AuthResponse represents the response from authentication
type AuthResponse struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"clientId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SendMessageRequest asks the runtime to route a message
type SendMessageRequest struct {
	Type      messaging.MessageType `json:"type"`
	Sender    string                `json:"sender,omitempty"`
	Recipient string                `json:"recipient"`
	TTLMs     int64                 `json:"ttlMs,omitempty"`
	Headers   map[string]string     `json:"headers,omitempty"`
	Payload   json.RawMessage       `json:"payload,omitempty"`
}

// SendMessageResponse is returned once the runtime accepted a message
type SendMessageResponse struct {
	MessageID string    `json:"messageId"`
	Recipient string    `json:"recipient"`
	Accepted  time.Time `json:"accepted"`
}

// Route is a routing table entry
type Route struct {
	ParticipantID string                `json:"participantId"`
	Address       messaging.AddressSpec `json:"address"`
	Description   string                `json:"description,omitempty"`
}

// RoutesListResponse lists the routing table
type RoutesListResponse struct {
	Routes []Route `json:"routes"`
}

// MulticastSubscribeRequest registers a multicast subscription
type MulticastSubscribeRequest struct {
	ReceiverParticipantID string         `json:"receiverParticipantId,omitempty"`
	Request               map[string]any `json:"request"`
}

// MulticastSubscription describes a registered multicast subscription
type MulticastSubscription struct {
	SubscriptionID        string         `json:"subscriptionId"`
	MulticastID           string         `json:"multicastId"`
	SubscribedToName      string         `json:"subscribedToName"`
	ReceiverParticipantID string         `json:"receiverParticipantId"`
	RegisteredAt          time.Time      `json:"registeredAt"`
	Request               map[string]any `json:"request"`
}

// MulticastSubscriptionsListResponse lists multicast subscriptions
type MulticastSubscriptionsListResponse struct {
	Subscriptions []MulticastSubscription `json:"subscriptions"`
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

// WebMessage is a frame exchanged with the window endpoint
type WebMessage struct {
	WindowID *string            `json:"windowId"`
	Message  *messaging.Message `json:"message"`
}

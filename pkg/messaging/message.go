package messaging

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// MessageType is the joynr message type carried in every message header
type MessageType string

const (
	TypeRequest                      MessageType = "request"
	TypeReply                        MessageType = "reply"
	TypeOneWay                       MessageType = "oneWay"
	TypeSubscriptionRequest          MessageType = "subscriptionRequest"
	TypeMulticastSubscriptionRequest MessageType = "multicastSubscriptionRequest"
	TypeSubscriptionReply            MessageType = "subscriptionReply"
	TypeSubscriptionStop             MessageType = "subscriptionStop"
	TypePublication                  MessageType = "publication"
	// TypeMulticast messages carry the multicast id in Recipient
	TypeMulticast MessageType = "multicast"
)

// Message is an outgoing joynr message. The payload is opaque to the messaging layer.
type Message struct {
	// ID uniquely identifies the message
	ID string `json:"id"`

	// Type is the joynr message type
	Type MessageType `json:"type"`

	// Sender is the participant id of the sender
	Sender string `json:"sender"`

	// Recipient is the participant id of the receiver, or the multicast id for TypeMulticast
	Recipient string `json:"recipient"`

	// ExpiryDate is when the message becomes undeliverable; zero means never
	ExpiryDate time.Time `json:"expiryDate,omitempty"`

	// Headers are custom key-value metadata
	Headers map[string]string `json:"headers,omitempty"`

	// Payload is the serialized request, reply or publication
	Payload []byte `json:"payload,omitempty"`
}

// NewMessage creates a message with a fresh id.
// The payload is copied so later changes by the caller do not leak into the message.
func NewMessage(msgType MessageType, sender, recipient string, payload []byte) *Message {
	var payloadCopy []byte
	if payload != nil {
		payloadCopy = make([]byte, len(payload))
		copy(payloadCopy, payload)
	}

	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Sender:    sender,
		Recipient: recipient,
		Headers:   make(map[string]string),
		Payload:   payloadCopy,
	}
}

// WithTTL returns a copy of the message expiring ttl from now
func (m *Message) WithTTL(ttl time.Duration) *Message {
	c := m.Copy()
	c.ExpiryDate = time.Now().Add(ttl)
	return c
}

// WithHeader returns a copy of the message with the header set
func (m *Message) WithHeader(key, value string) *Message {
	c := m.Copy()
	c.Headers[key] = value
	return c
}

// IsExpired reports whether the message expired before at
func (m *Message) IsExpired(at time.Time) bool {
	return !m.ExpiryDate.IsZero() && at.After(m.ExpiryDate)
}

// IsMulticast reports whether Recipient names a multicast id
func (m *Message) IsMulticast() bool {
	return m.Type == TypeMulticast
}

// Copy returns a deep copy of the message
func (m *Message) Copy() *Message {
	c := *m
	if m.Payload != nil {
		c.Payload = make([]byte, len(m.Payload))
		copy(c.Payload, m.Payload)
	}
	c.Headers = make(map[string]string, len(m.Headers))
	maps.Copy(c.Headers, m.Headers)
	return &c
}

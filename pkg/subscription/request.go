package subscription

import (
	"log/slog"
	"reflect"

	"github.com/zicheng-pan/joynr/pkg/subscriptionqos"
)

// MulticastSubscriptionRequestSettings is the settings record for a multicast subscription.
type MulticastSubscriptionRequestSettings struct {
	// MulticastID identifies the multicast channel (required)
	MulticastID string

	// SubscribedToName is the name of the broadcast being subscribed to (required)
	SubscribedToName string

	// SubscriptionID uniquely identifies this subscription (required)
	SubscriptionID string

	// Qos is optional; nil leaves the request without a descriptor
	Qos subscriptionqos.Qos
}

// MulticastSubscriptionRequest is a validated request to receive the events published
// under a multicast id. It holds the values it was built from and never changes.
type MulticastSubscriptionRequest struct {
	multicastID      string
	subscribedToName string
	subscriptionID   string
	qos              subscriptionqos.Qos
}

// NewMulticastSubscriptionRequest validates settings and builds the request.
// Every failure matches ErrInvalidArgument.
func NewMulticastSubscriptionRequest(settings *MulticastSubscriptionRequestSettings) (*MulticastSubscriptionRequest, error) {
	if settings == nil {
		return nil, invalidArgument("settings", "is required")
	}
	if settings.MulticastID == "" {
		return nil, invalidArgument("multicastId", "is required")
	}
	if err := validateCommon(settings.SubscribedToName, settings.SubscriptionID); err != nil {
		return nil, err
	}
	if err := validateQos(settings.Qos, subscriptionqos.AcceptedForMulticast); err != nil {
		return nil, err
	}

	return &MulticastSubscriptionRequest{
		multicastID:      settings.MulticastID,
		subscribedToName: settings.SubscribedToName,
		subscriptionID:   settings.SubscriptionID,
		qos:              settings.Qos,
	}, nil
}

// MulticastID returns the multicast channel id
func (r *MulticastSubscriptionRequest) MulticastID() string {
	return r.multicastID
}

// SubscribedToName returns the broadcast name
func (r *MulticastSubscriptionRequest) SubscribedToName() string {
	return r.subscribedToName
}

// SubscriptionID returns the subscription id
func (r *MulticastSubscriptionRequest) SubscriptionID() string {
	return r.subscriptionID
}

// Qos returns the descriptor passed at construction, or nil
func (r *MulticastSubscriptionRequest) Qos() subscriptionqos.Qos {
	return r.qos
}

// LogValue implements slog.LogValuer
func (r *MulticastSubscriptionRequest) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("multicast_id", r.multicastID),
		slog.String("subscribed_to", r.subscribedToName),
		slog.String("subscription_id", r.subscriptionID),
	}
	if r.qos != nil {
		attrs = append(attrs, slog.String("qos", r.qos.TypeName()))
	}
	return slog.GroupValue(attrs...)
}

// SubscriptionRequestSettings is the settings record for an attribute subscription.
type SubscriptionRequestSettings struct {
	SubscribedToName string
	SubscriptionID   string
	Qos              subscriptionqos.Qos
}

// SubscriptionRequest is a validated request to receive publications of an attribute.
type SubscriptionRequest struct {
	subscribedToName string
	subscriptionID   string
	qos              subscriptionqos.Qos
}

// NewSubscriptionRequest validates settings and builds the request. Any valid descriptor is accepted.
func NewSubscriptionRequest(settings *SubscriptionRequestSettings) (*SubscriptionRequest, error) {
	if settings == nil {
		return nil, invalidArgument("settings", "is required")
	}
	if err := validateCommon(settings.SubscribedToName, settings.SubscriptionID); err != nil {
		return nil, err
	}
	if err := validateQos(settings.Qos, nil); err != nil {
		return nil, err
	}

	return &SubscriptionRequest{
		subscribedToName: settings.SubscribedToName,
		subscriptionID:   settings.SubscriptionID,
		qos:              settings.Qos,
	}, nil
}

// SubscribedToName returns the attribute name
func (r *SubscriptionRequest) SubscribedToName() string {
	return r.subscribedToName
}

// SubscriptionID returns the subscription id
func (r *SubscriptionRequest) SubscriptionID() string {
	return r.subscriptionID
}

// Qos returns the descriptor passed at construction, or nil
func (r *SubscriptionRequest) Qos() subscriptionqos.Qos {
	return r.qos
}

func validateCommon(subscribedToName, subscriptionID string) error {
	if subscribedToName == "" {
		return invalidArgument("subscribedToName", "is required")
	}
	if subscriptionID == "" {
		return invalidArgument("subscriptionId", "is required")
	}
	return nil
}

// validateQos accepts a nil descriptor. accept may be nil to allow every variant.
func validateQos(qos subscriptionqos.Qos, accept func(subscriptionqos.Qos) bool) error {
	if qos == nil {
		return nil
	}
	if v := reflect.ValueOf(qos); v.Kind() == reflect.Pointer && v.IsNil() {
		return invalidArgument("qos", "is a nil "+v.Type().String())
	}
	if accept != nil && !accept(qos) {
		return invalidArgument("qos", "of type "+qos.TypeName()+" is not accepted here")
	}
	if err := qos.Validate(); err != nil {
		return invalidArgument("qos", err.Error())
	}
	return nil
}

package subscriptionqos

// MulticastSubscriptionQos is the descriptor for multicast subscriptions.
// It carries only the shared expiry and publication TTL.
type MulticastSubscriptionQos struct {
	SubscriptionQos
}

// NewMulticastSubscriptionQos creates a multicast descriptor from settings.
func NewMulticastSubscriptionQos(settings Settings) *MulticastSubscriptionQos {
	q := &MulticastSubscriptionQos{}
	q.init(settings, now())
	return q
}

// TypeName returns "joynr.MulticastSubscriptionQos"
func (q *MulticastSubscriptionQos) TypeName() string {
	return MulticastSubscriptionQosType
}

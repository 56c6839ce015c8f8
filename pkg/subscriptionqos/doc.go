// Package subscriptionqos provides the quality-of-service descriptors attached to
// subscription requests.
//
// The descriptors form a compatibility hierarchy:
//   - SubscriptionQos: expiry date and publication TTL shared by every variant
//   - MulticastSubscriptionQos: the descriptor for multicast (broadcast-style) subscriptions
//   - OnChangeSubscriptionQos: adds a minimum interval between publications
//   - OnChangeWithKeepAliveSubscriptionQos: adds a keep-alive maximum interval and an alert interval
//   - PeriodicSubscriptionQos: publications at a fixed period
//
// Consumers accept descriptors through the Qos interface rather than a concrete type,
// so a legacy OnChangeSubscriptionQos can stand in wherever a MulticastSubscriptionQos
// is expected.
//
// Out-of-range values are clamped at construction, mirroring the behaviour of the other
// joynr runtimes. Validate only rejects values that cannot be clamped meaningfully, such as
// a negative expiry date.
//
// Example usage:
//
//	qos := subscriptionqos.NewMulticastSubscriptionQos(subscriptionqos.Settings{
//		ValidityMs: 60_000,
//	})
//	if qos.IsExpired(time.Now()) {
//		return errSubscriptionExpired
//	}
package subscriptionqos

// Package subscription provides the subscription request value objects handed from the
// subscription layer to the messaging layer.
//
// A MulticastSubscriptionRequest registers interest in events published under a
// multicast id. It is built in one step from a settings record and is read-only afterwards:
//
//	req, err := subscription.NewMulticastSubscriptionRequest(&subscription.MulticastSubscriptionRequestSettings{
//		MulticastID:      "provider/weatherAlert/berlin",
//		SubscribedToName: "weatherAlert",
//		SubscriptionID:   uuid.NewString(),
//		Qos:              subscriptionqos.NewMulticastSubscriptionQos(subscriptionqos.Settings{ValidityMs: 60_000}),
//	})
//	if errors.Is(err, subscription.ErrInvalidArgument) {
//		// reject the request
//	}
//
// Records decoded from outside the process (for example JSON request bodies) go through
// MulticastSubscriptionRequestFromRecord, which also checks field types.
package subscription

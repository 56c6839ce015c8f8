// Package messagerouter provides interfaces for the joynr message router.
//
// The message router is the dispatch layer of a joynr runtime. For every outgoing
// message it resolves the recipient's address in the routing table, obtains a
// messaging stub for that address from the stub factory registered for the
// address kind, and hands the message to the stub.
//
// Messages are handled as follows:
//   - Expired messages are rejected with ErrMessageExpired
//   - Multicast messages are delivered to every receiver registered for the multicast id
//   - Messages for unknown participants are queued until a next hop is added
//   - All other messages are transmitted through a cached stub per address
//
// Example usage:
//
//	router.AddNextHop(ctx, "provider-1", messaging.NewBrowserAddress("window-1"))
//
//	msg := messaging.NewMessage(messaging.TypeRequest, "consumer-1", "provider-1", payload).
//		WithTTL(time.Minute)
//	if err := router.Route(ctx, msg); err != nil {
//		return err
//	}
package messagerouter

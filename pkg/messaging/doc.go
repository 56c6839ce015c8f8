// Package messaging defines the contracts shared by the message router and the transports.
//
// This package defines:
//   - Message: an outgoing joynr message with routing metadata and an opaque payload
//   - MessagingStub: a per-destination adapter that transmits messages to one transport
//   - StubFactory: creates stubs for the address kinds a transport understands
//   - Address: transport-specific destination descriptions
//   - Receiver: the inbound side that transports hand received messages to
//
// Stubs are cheap forwarding adapters. They do not retry, queue or reorder; those concerns
// belong to the router (queueing unknown destinations) and to the transport itself.
//
// Example usage:
//
//	msg := messaging.NewMessage(messaging.TypeRequest, "consumer-1", "provider-1", payload).
//		WithTTL(time.Minute)
//	stub, err := factory.Create(address)
//	if err != nil {
//		return err
//	}
//	return stub.Transmit(ctx, msg)
package messaging

// Package routingtable provides interfaces for participant-to-address routing.
//
// This package defines the core abstractions for the joynr routing table:
//   - Entry: a participant id together with the address it can be reached at
//   - RoutingTable: interface for managing participant-to-address mappings
//
// Entries are put-if-absent. A participant keeps the address it was first
// registered with until it is removed; a Put for a known participant returns the
// address already stored. Routers rely on this to avoid flapping between
// transports when the same participant is announced twice.
//
// The interfaces use Go idioms:
//   - context.Context for cancellation and timeouts
//   - Explicit error returns following Go conventions
//   - io.Closer for resource cleanup
//
// Example usage:
//
//	// Register a provider living in a browser window
//	addr, err := table.Put(ctx, "provider-1", messaging.NewBrowserAddress("window-1"))
//	if err != nil {
//		return err
//	}
//
//	// Look up the next hop for a message
//	addr, ok, err := table.Get(ctx, msg.Recipient)
//	if err != nil {
//		return err
//	}
//	if !ok {
//		// queue until the participant is known
//	}
package routingtable

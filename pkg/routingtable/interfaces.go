package routingtable

import (
	"context"
	"io"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

// Entry is a single routing entry
type Entry struct {
	// ParticipantID identifies the routed participant
	ParticipantID string

	// Address is where the participant can be reached
	Address messaging.Address
}

// RoutingTable manages participant-to-address mappings for message routing.
type RoutingTable interface {
	io.Closer

	// Get returns the address of a participant. The boolean is false when the participant is unknown.
	Get(ctx context.Context, participantID string) (messaging.Address, bool, error)

	// Put stores the address for a participant unless one is already present.
	// It returns the address stored after the call, which is the existing one for a known participant.
	Put(ctx context.Context, participantID string, address messaging.Address) (messaging.Address, error)

	// ContainsKey reports whether the participant has an address
	ContainsKey(ctx context.Context, participantID string) (bool, error)

	// Remove deletes the participant's entry. Removing an unknown participant is not an error.
	Remove(ctx context.Context, participantID string) error

	// Entries returns a snapshot of all entries sorted by participant id
	Entries(ctx context.Context) ([]Entry, error)

	// Count returns the number of routed participants
	Count(ctx context.Context) (int, error)
}

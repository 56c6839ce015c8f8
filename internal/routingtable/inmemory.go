package routingtable

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/zicheng-pan/joynr/pkg/messaging"
	"github.com/zicheng-pan/joynr/pkg/routingtable"
)

var (
	// ErrEmptyParticipantID is returned when an empty participant id is provided
	ErrEmptyParticipantID = errors.New("participant id cannot be empty")
	// ErrNilAddress is returned when a nil address is provided
	ErrNilAddress = errors.New("address cannot be nil")
	// ErrClosed is returned when the routing table has been closed
	ErrClosed = errors.New("routing table is closed")
)

// InMemoryRoutingTable implements routingtable.RoutingTable on a concurrent map.
// It is safe for concurrent use.
type InMemoryRoutingTable struct {
	entries *xsync.MapOf[string, messaging.Address]
	logger  *slog.Logger
	closed  atomic.Bool
}

// NewInMemoryRoutingTable creates an empty routing table. logger may be nil.
func NewInMemoryRoutingTable(logger *slog.Logger) *InMemoryRoutingTable {
	return &InMemoryRoutingTable{
		entries: xsync.NewMapOf[string, messaging.Address](),
		logger:  logger,
	}
}

// Get returns the address of a participant
func (rt *InMemoryRoutingTable) Get(ctx context.Context, participantID string) (messaging.Address, bool, error) {
	if err := rt.check(ctx); err != nil {
		return nil, false, err
	}

	address, ok := rt.entries.Load(participantID)
	if !ok {
		rt.debug("routing table miss",
			slog.String("participantId", participantID),
			slog.Any("entries", tableDump{rt}))
	}
	return address, ok, nil
}

// Put stores the address for a participant unless one is already present
func (rt *InMemoryRoutingTable) Put(ctx context.Context, participantID string, address messaging.Address) (messaging.Address, error) {
	if participantID == "" {
		return nil, ErrEmptyParticipantID
	}
	if address == nil {
		return nil, ErrNilAddress
	}
	if err := rt.check(ctx); err != nil {
		return nil, err
	}

	actual, loaded := rt.entries.LoadOrStore(participantID, address)
	if loaded && actual.String() != address.String() {
		rt.debug("participant already routed, keeping existing address",
			slog.String("participantId", participantID),
			slog.String("existing", actual.String()),
			slog.String("rejected", address.String()))
	} else if !loaded {
		rt.debug("route added",
			slog.String("participantId", participantID),
			slog.String("address", address.String()))
	}
	return actual, nil
}

// ContainsKey reports whether the participant has an address
func (rt *InMemoryRoutingTable) ContainsKey(ctx context.Context, participantID string) (bool, error) {
	if err := rt.check(ctx); err != nil {
		return false, err
	}
	_, ok := rt.entries.Load(participantID)
	return ok, nil
}

// Remove deletes the participant's entry
func (rt *InMemoryRoutingTable) Remove(ctx context.Context, participantID string) error {
	if err := rt.check(ctx); err != nil {
		return err
	}
	if _, ok := rt.entries.LoadAndDelete(participantID); ok {
		rt.debug("route removed", slog.String("participantId", participantID))
	}
	return nil
}

// Entries returns a snapshot of all entries sorted by participant id
func (rt *InMemoryRoutingTable) Entries(ctx context.Context) ([]routingtable.Entry, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	return rt.snapshot(), nil
}

// Count returns the number of routed participants
func (rt *InMemoryRoutingTable) Count(ctx context.Context) (int, error) {
	if err := rt.check(ctx); err != nil {
		return 0, err
	}
	return rt.entries.Size(), nil
}

// Close clears the table. Further calls return ErrClosed.
func (rt *InMemoryRoutingTable) Close() error {
	if rt.closed.Swap(true) {
		return nil
	}
	rt.entries.Clear()
	return nil
}

func (rt *InMemoryRoutingTable) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if rt.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (rt *InMemoryRoutingTable) snapshot() []routingtable.Entry {
	entries := make([]routingtable.Entry, 0, rt.entries.Size())
	rt.entries.Range(func(participantID string, address messaging.Address) bool {
		entries = append(entries, routingtable.Entry{ParticipantID: participantID, Address: address})
		return true
	})
	slices.SortFunc(entries, func(a, b routingtable.Entry) int {
		return strings.Compare(a.ParticipantID, b.ParticipantID)
	})
	return entries
}

func (rt *InMemoryRoutingTable) dump() string {
	var sb strings.Builder
	for i, entry := range rt.snapshot() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(entry.ParticipantID)
		sb.WriteString("=")
		sb.WriteString(entry.Address.String())
	}
	return sb.String()
}

// tableDump renders the table only when a handler actually emits the record
type tableDump struct {
	rt *InMemoryRoutingTable
}

func (d tableDump) LogValue() slog.Value {
	return slog.StringValue(d.rt.dump())
}

func (rt *InMemoryRoutingTable) debug(msg string, args ...any) {
	if rt.logger != nil {
		rt.logger.Debug(msg, args...)
	}
}

// Verify that InMemoryRoutingTable implements the RoutingTable interface at compile time
var _ routingtable.RoutingTable = (*InMemoryRoutingTable)(nil)

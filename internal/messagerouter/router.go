// Package messagerouter implements the joynr message router.
package messagerouter

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/zicheng-pan/joynr/internal/messagequeue"
	"github.com/zicheng-pan/joynr/internal/routingtable"
	"github.com/zicheng-pan/joynr/pkg/messagerouter"
	"github.com/zicheng-pan/joynr/pkg/messaging"
	routingtablepkg "github.com/zicheng-pan/joynr/pkg/routingtable"
)

var (
	// ErrNilMessage is returned when a nil message is routed
	ErrNilMessage = errors.New("message cannot be nil")
	// ErrEmptyMulticastID is returned when a multicast receiver is registered without a multicast id
	ErrEmptyMulticastID = errors.New("multicast id cannot be empty")
	// ErrEmptyParticipantID is returned when a participant id is missing
	ErrEmptyParticipantID = errors.New("participant id cannot be empty")
	// ErrClosed is returned when the router has been closed
	ErrClosed = errors.New("message router is closed")
)

// Router implements messagerouter.MessageRouter.
// It is safe for concurrent use.
type Router struct {
	config       Config
	routingTable *routingtable.InMemoryRoutingTable
	queue        *messagequeue.InMemoryMessageQueue
	receivers    *multicastReceivers
	factories    map[messaging.AddressKind]messaging.StubFactory
	stubs        *xsync.MapOf[string, messaging.MessagingStub] // address -> stub
	locks        *participantLocks
	logger       *slog.Logger
	now          func() time.Time

	startOnce sync.Once
	stop      chan struct{}
	wg        sync.WaitGroup
	closed    atomic.Bool
}

// New creates a router using factories to create stubs. A nil config selects the defaults.
func New(config *Config, factories ...messaging.StubFactory) (*Router, error) {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.SetDefaults()

	queue, err := messagequeue.New(&cfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("failed to create message queue: %w", err)
	}

	r := &Router{
		config:       cfg,
		routingTable: routingtable.NewInMemoryRoutingTable(cfg.Logger),
		queue:        queue,
		receivers:    newMulticastReceivers(),
		factories:    make(map[messaging.AddressKind]messaging.StubFactory, len(factories)),
		stubs:        xsync.NewMapOf[string, messaging.MessagingStub](),
		locks:        newParticipantLocks(),
		logger:       cfg.Logger,
		now:          time.Now,
		stop:         make(chan struct{}),
	}
	for _, f := range factories {
		r.factories[f.Kind()] = f
	}
	return r, nil
}

// Start runs the background pruning of expired queued messages until ctx is done or the router is closed.
func (r *Router) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.pruneLoop(ctx)
	})
}

// PruneInterval returns the effective interval between prune runs
func (r *Router) PruneInterval() time.Duration {
	return r.config.PruneInterval
}

func (r *Router) pruneLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			dropped, err := r.queue.PruneExpired(ctx)
			if err != nil {
				return
			}
			if dropped > 0 {
				r.debug("dropped expired queued messages", slog.Int("count", dropped))
			}
		}
	}
}

// Route delivers msg to its next hop.
func (r *Router) Route(ctx context.Context, msg *messaging.Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if r.closed.Load() {
		return ErrClosed
	}
	if msg.IsExpired(r.now()) {
		return fmt.Errorf("%w: %s expired at %s", messagerouter.ErrMessageExpired, msg.ID, msg.ExpiryDate.Format(time.RFC3339Nano))
	}

	if msg.IsMulticast() {
		return r.routeMulticast(ctx, msg)
	}

	// a miss and the enqueue must not straddle AddNextHop's put and drain
	unlock := r.locks.lock(msg.Recipient)
	address, ok, err := r.routingTable.Get(ctx, msg.Recipient)
	if err != nil {
		unlock()
		return fmt.Errorf("failed to resolve %s: %w", msg.Recipient, err)
	}
	if !ok {
		err := r.queue.Put(ctx, msg)
		unlock()
		if err != nil {
			return fmt.Errorf("failed to queue message %s: %w", msg.ID, err)
		}
		r.debug("recipient unknown, message queued",
			slog.String("messageId", msg.ID),
			slog.String("recipient", msg.Recipient))
		return nil
	}
	unlock()

	return r.transmit(ctx, address, msg)
}

// Receive routes a message arriving from a transport
func (r *Router) Receive(ctx context.Context, msg *messaging.Message) error {
	return r.Route(ctx, msg)
}

func (r *Router) routeMulticast(ctx context.Context, msg *messaging.Message) error {
	receivers := r.receivers.get(msg.Recipient)
	if len(receivers) == 0 {
		r.debug("no receivers for multicast",
			slog.String("messageId", msg.ID),
			slog.String("multicastId", msg.Recipient))
		return nil
	}

	// receivers sharing an address get the message once
	seen := make(map[string]struct{}, len(receivers))
	var errs []error
	for _, participantID := range receivers {
		address, ok, err := r.routingTable.Get(ctx, participantID)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to resolve %s: %w", participantID, err))
			continue
		}
		if !ok {
			r.debug("multicast receiver has no route",
				slog.String("multicastId", msg.Recipient),
				slog.String("participantId", participantID))
			continue
		}
		if _, dup := seen[address.String()]; dup {
			continue
		}
		seen[address.String()] = struct{}{}

		if err := r.transmit(ctx, address, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Router) transmit(ctx context.Context, address messaging.Address, msg *messaging.Message) error {
	stub, err := r.stubFor(address)
	if err != nil {
		return err
	}

	r.debug("transmitting message",
		slog.String("messageId", msg.ID),
		slog.String("type", string(msg.Type)),
		slog.String("recipient", msg.Recipient),
		slog.String("address", address.String()))

	if err := stub.Transmit(ctx, msg); err != nil {
		return fmt.Errorf("failed to transmit %s to %s: %w", msg.ID, address, err)
	}
	return nil
}

func (r *Router) stubFor(address messaging.Address) (messaging.MessagingStub, error) {
	key := address.String()
	if stub, ok := r.stubs.Load(key); ok {
		return stub, nil
	}

	factory, ok := r.factories[address.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", messagerouter.ErrNoStubFactory, address.Kind())
	}
	stub, err := factory.Create(address)
	if err != nil {
		return nil, fmt.Errorf("failed to create stub for %s: %w", address, err)
	}

	actual, loaded := r.stubs.LoadOrStore(key, stub)
	if loaded {
		closeStub(stub)
	}
	return actual, nil
}

// AddNextHop registers the participant's address and flushes its queued messages.
// Flushed messages are transmitted after the participant lock is released, since
// in-process receivers may route replies from within Transmit.
func (r *Router) AddNextHop(ctx context.Context, participantID string, address messaging.Address) error {
	if r.closed.Load() {
		return ErrClosed
	}

	stored, queued, err := r.putAndDrain(ctx, participantID, address)
	if err != nil {
		return err
	}

	var errs []error
	for _, msg := range queued {
		if err := r.transmit(ctx, stored, msg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(queued) > 0 {
		r.debug("flushed queued messages",
			slog.String("participantId", participantID),
			slog.Int("count", len(queued)))
	}
	return errors.Join(errs...)
}

func (r *Router) putAndDrain(ctx context.Context, participantID string, address messaging.Address) (messaging.Address, []*messaging.Message, error) {
	unlock := r.locks.lock(participantID)
	defer unlock()

	stored, err := r.routingTable.Put(ctx, participantID, address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to add next hop for %s: %w", participantID, err)
	}
	queued, err := r.queue.Drain(ctx, participantID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to drain queue for %s: %w", participantID, err)
	}
	return stored, queued, nil
}

// RemoveNextHop removes the participant's address. The cached stub for that address
// is closed once no other participant is routed to it.
func (r *Router) RemoveNextHop(ctx context.Context, participantID string) error {
	if r.closed.Load() {
		return ErrClosed
	}

	unlock := r.locks.lock(participantID)
	address, ok, err := r.routingTable.Get(ctx, participantID)
	if err == nil && ok {
		err = r.routingTable.Remove(ctx, participantID)
	}
	unlock()
	if err != nil || !ok {
		return err
	}

	return r.releaseStub(ctx, address)
}

func (r *Router) releaseStub(ctx context.Context, address messaging.Address) error {
	key := address.String()
	entries, err := r.routingTable.Entries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list routes: %w", err)
	}
	for _, entry := range entries {
		if entry.Address.String() == key {
			return nil
		}
	}

	if stub, ok := r.stubs.LoadAndDelete(key); ok {
		closeStub(stub)
		r.debug("closed stub for unused address", slog.String("address", key))
	}
	return nil
}

// AddMulticastReceiver registers a participant as receiver of a multicast
func (r *Router) AddMulticastReceiver(ctx context.Context, multicastID, receiverParticipantID string) error {
	if err := r.checkMulticastArgs(ctx, multicastID, receiverParticipantID); err != nil {
		return err
	}
	r.receivers.add(multicastID, receiverParticipantID)
	r.debug("multicast receiver added",
		slog.String("multicastId", multicastID),
		slog.String("participantId", receiverParticipantID))
	return nil
}

// RemoveMulticastReceiver removes a participant from a multicast
func (r *Router) RemoveMulticastReceiver(ctx context.Context, multicastID, receiverParticipantID string) error {
	if err := r.checkMulticastArgs(ctx, multicastID, receiverParticipantID); err != nil {
		return err
	}
	r.receivers.remove(multicastID, receiverParticipantID)
	return nil
}

func (r *Router) checkMulticastArgs(ctx context.Context, multicastID, participantID string) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if multicastID == "" {
		return ErrEmptyMulticastID
	}
	if participantID == "" {
		return ErrEmptyParticipantID
	}
	return ctx.Err()
}

// GetRoutingTable returns the router's routing table
func (r *Router) GetRoutingTable() routingtablepkg.RoutingTable {
	return r.routingTable
}

// GetHealth returns the health status of the router
func (r *Router) GetHealth(ctx context.Context) (messagerouter.HealthStatus, error) {
	if r.closed.Load() {
		return messagerouter.HealthStatus{Healthy: false, Message: "router is closed"}, nil
	}

	routes, err := r.routingTable.Count(ctx)
	if err != nil {
		return messagerouter.HealthStatus{}, fmt.Errorf("failed to count routes: %w", err)
	}
	stats, err := r.queue.GetStatistics(ctx)
	if err != nil {
		return messagerouter.HealthStatus{}, fmt.Errorf("failed to read queue statistics: %w", err)
	}

	return messagerouter.HealthStatus{
		Healthy:            true,
		Routes:             routes,
		QueuedMessages:     stats.TotalMessages,
		MulticastReceivers: r.receivers.count(),
		Message:            "router is accepting messages",
	}, nil
}

// Close stops background work and releases the routing table, queue and stubs.
func (r *Router) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	close(r.stop)
	r.wg.Wait()

	r.stubs.Range(func(_ string, stub messaging.MessagingStub) bool {
		closeStub(stub)
		return true
	})
	r.stubs.Clear()

	if err := r.queue.Close(); err != nil {
		return fmt.Errorf("failed to close message queue: %w", err)
	}
	if err := r.routingTable.Close(); err != nil {
		return fmt.Errorf("failed to close routing table: %w", err)
	}
	return nil
}

func (r *Router) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

const lockStripes = 64

// participantLocks is a fixed set of mutexes striped by participant id
type participantLocks struct {
	seed    maphash.Seed
	stripes [lockStripes]sync.Mutex
}

func newParticipantLocks() *participantLocks {
	return &participantLocks{seed: maphash.MakeSeed()}
}

func (l *participantLocks) lock(participantID string) (unlock func()) {
	m := &l.stripes[maphash.String(l.seed, participantID)%lockStripes]
	m.Lock()
	return m.Unlock
}

func closeStub(stub messaging.MessagingStub) {
	if c, ok := stub.(io.Closer); ok {
		_ = c.Close()
	}
}

// Verify that Router implements the MessageRouter interface at compile time
var _ messagerouter.MessageRouter = (*Router)(nil)

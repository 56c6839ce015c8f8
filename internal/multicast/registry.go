// Package multicast keeps track of multicast subscriptions and registers their
// receivers with the message router.
package multicast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/zicheng-pan/joynr/pkg/subscription"
)

var (
	// ErrNilRequest is returned when a nil subscription request is registered
	ErrNilRequest = errors.New("subscription request cannot be nil")
	// ErrEmptyReceiver is returned when no receiver participant id is provided
	ErrEmptyReceiver = errors.New("receiver participant id cannot be empty")
	// ErrSubscriptionExpired is returned when registering a subscription whose qos already expired
	ErrSubscriptionExpired = errors.New("subscription expired")
	// ErrUnknownSubscription is returned when unregistering an unknown subscription id
	ErrUnknownSubscription = errors.New("unknown subscription")
)

// ReceiverDirectory is the part of the message router the registry drives
type ReceiverDirectory interface {
	AddMulticastReceiver(ctx context.Context, multicastID, receiverParticipantID string) error
	RemoveMulticastReceiver(ctx context.Context, multicastID, receiverParticipantID string) error
}

// Subscription is a registered multicast subscription
type Subscription struct {
	ReceiverParticipantID string
	Request               *subscription.MulticastSubscriptionRequest
	RegisteredAt          time.Time
}

// expired reports whether the subscription's qos has expired at the given time
func (s Subscription) expired(at time.Time) bool {
	qos := s.Request.Qos()
	return qos != nil && qos.IsExpired(at)
}

// Registry holds multicast subscriptions keyed by subscription id.
// It is safe for concurrent use.
type Registry struct {
	mu            sync.Mutex
	directory     ReceiverDirectory
	subscriptions map[string]Subscription // subscriptionID -> subscription
	logger        *slog.Logger
	now           func() time.Time
}

// NewRegistry creates a registry that registers receivers in directory. logger may be nil.
func NewRegistry(directory ReceiverDirectory, logger *slog.Logger) *Registry {
	return &Registry{
		directory:     directory,
		subscriptions: make(map[string]Subscription),
		logger:        logger,
		now:           time.Now,
	}
}

// Register records the subscription and adds the receiver to the multicast.
// Registering an existing subscription id replaces the earlier subscription.
func (r *Registry) Register(ctx context.Context, receiverParticipantID string, req *subscription.MulticastSubscriptionRequest) error {
	if req == nil {
		return ErrNilRequest
	}
	if receiverParticipantID == "" {
		return ErrEmptyReceiver
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sub := Subscription{
		ReceiverParticipantID: receiverParticipantID,
		Request:               req,
		RegisteredAt:          r.now(),
	}
	if sub.expired(sub.RegisteredAt) {
		return fmt.Errorf("%w: %s", ErrSubscriptionExpired, req.SubscriptionID())
	}

	if err := r.directory.AddMulticastReceiver(ctx, req.MulticastID(), receiverParticipantID); err != nil {
		return fmt.Errorf("failed to add multicast receiver: %w", err)
	}

	if previous, ok := r.subscriptions[req.SubscriptionID()]; ok {
		r.subscriptions[req.SubscriptionID()] = sub
		if err := r.release(ctx, previous); err != nil {
			return err
		}
	} else {
		r.subscriptions[req.SubscriptionID()] = sub
	}

	if r.logger != nil {
		r.logger.Debug("multicast subscription registered", slog.Any("request", req),
			slog.String("receiver", receiverParticipantID))
	}
	return nil
}

// Unregister removes a subscription and, when no other subscription needs it, its multicast receiver
func (r *Registry) Unregister(ctx context.Context, subscriptionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subscriptions[subscriptionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubscription, subscriptionID)
	}
	delete(r.subscriptions, subscriptionID)
	return r.release(ctx, sub)
}

// Get returns a subscription by id
func (r *Registry) Get(subscriptionID string) (Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subscriptions[subscriptionID]
	return sub, ok
}

// Subscriptions returns all subscriptions sorted by subscription id
func (r *Registry) Subscriptions() []Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := make([]Subscription, 0, len(r.subscriptions))
	for _, sub := range r.subscriptions {
		subs = append(subs, sub)
	}
	slices.SortFunc(subs, func(a, b Subscription) int {
		return strings.Compare(a.Request.SubscriptionID(), b.Request.SubscriptionID())
	})
	return subs
}

// PruneExpired removes subscriptions whose qos expired before at and returns how many were removed
func (r *Registry) PruneExpired(ctx context.Context, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []Subscription
	for id, sub := range r.subscriptions {
		if sub.expired(at) {
			expired = append(expired, sub)
			delete(r.subscriptions, id)
		}
	}

	var errs []error
	for _, sub := range expired {
		if err := r.release(ctx, sub); err != nil {
			errs = append(errs, err)
		}
		if r.logger != nil {
			r.logger.Debug("multicast subscription expired", slog.String("subscriptionId", sub.Request.SubscriptionID()))
		}
	}
	return len(expired), errors.Join(errs...)
}

// Run prunes expired subscriptions every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.PruneExpired(ctx, r.now()); err != nil && r.logger != nil {
				r.logger.Warn("failed to prune multicast subscriptions", slog.Any("error", err))
			}
		}
	}
}

// release removes the router registration of sub unless another subscription still uses it.
// Callers hold r.mu.
func (r *Registry) release(ctx context.Context, sub Subscription) error {
	for _, other := range r.subscriptions {
		if other.ReceiverParticipantID == sub.ReceiverParticipantID &&
			other.Request.MulticastID() == sub.Request.MulticastID() {
			return nil
		}
	}
	if err := r.directory.RemoveMulticastReceiver(ctx, sub.Request.MulticastID(), sub.ReceiverParticipantID); err != nil {
		return fmt.Errorf("failed to remove multicast receiver: %w", err)
	}
	return nil
}

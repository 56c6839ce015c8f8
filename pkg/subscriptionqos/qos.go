package subscriptionqos

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidQos is returned when a descriptor holds values that cannot be clamped
	ErrInvalidQos = errors.New("invalid subscription qos")
	// ErrUnknownQosType is returned when a record names a descriptor type this package does not know
	ErrUnknownQosType = errors.New("unknown subscription qos type")
)

const (
	// NoExpiryDate marks a subscription that never expires
	NoExpiryDate int64 = 0

	// DefaultPublicationTtlMs is used when no publication TTL is configured
	DefaultPublicationTtlMs int64 = 10_000
	// MinPublicationTtlMs is the smallest accepted publication TTL
	MinPublicationTtlMs int64 = 100
	// MaxPublicationTtlMs is the largest accepted publication TTL (30 days)
	MaxPublicationTtlMs int64 = 2_592_000_000
)

// Type names used on the wire and in settings records.
const (
	SubscriptionQosType                      = "joynr.SubscriptionQos"
	MulticastSubscriptionQosType             = "joynr.MulticastSubscriptionQos"
	OnChangeSubscriptionQosType              = "joynr.OnChangeSubscriptionQos"
	OnChangeWithKeepAliveSubscriptionQosType = "joynr.OnChangeWithKeepAliveSubscriptionQos"
	PeriodicSubscriptionQosType              = "joynr.PeriodicSubscriptionQos"
)

// now is swapped in tests
var now = time.Now

// Qos is the capability set every subscription quality-of-service descriptor provides.
type Qos interface {
	// TypeName returns the joynr type name, e.g. "joynr.MulticastSubscriptionQos"
	TypeName() string

	// ExpiryDateMs returns the absolute expiry in Unix milliseconds, or NoExpiryDate
	ExpiryDateMs() int64

	// PublicationTtlMs returns how long a publication stays valid after it is sent
	PublicationTtlMs() int64

	// IsExpired reports whether the subscription has expired at the given instant
	IsExpired(now time.Time) bool

	// Validate reports values that could not be clamped into range
	Validate() error
}

// Settings holds the values shared by every descriptor.
// Zero values select the defaults.
type Settings struct {
	// ExpiryDateMs is the absolute expiry in Unix milliseconds. Takes precedence over ValidityMs.
	ExpiryDateMs int64

	// ValidityMs sets the expiry relative to construction time when ExpiryDateMs is unset
	ValidityMs int64

	// PublicationTtlMs is clamped to [MinPublicationTtlMs, MaxPublicationTtlMs]
	PublicationTtlMs int64
}

// SubscriptionQos is the base descriptor embedded by every variant.
type SubscriptionQos struct {
	expiryDateMs     int64
	publicationTtlMs int64
}

// NewSubscriptionQos creates a base descriptor from settings.
func NewSubscriptionQos(settings Settings) *SubscriptionQos {
	q := &SubscriptionQos{}
	q.init(settings, now())
	return q
}

func (q *SubscriptionQos) init(settings Settings, at time.Time) {
	q.expiryDateMs = settings.ExpiryDateMs
	if q.expiryDateMs == NoExpiryDate && settings.ValidityMs > 0 {
		q.expiryDateMs = at.UnixMilli() + settings.ValidityMs
	}

	ttl := settings.PublicationTtlMs
	if ttl == 0 {
		ttl = DefaultPublicationTtlMs
	}
	q.SetPublicationTtlMs(ttl)
}

// TypeName returns "joynr.SubscriptionQos"
func (q *SubscriptionQos) TypeName() string {
	return SubscriptionQosType
}

// ExpiryDateMs returns the absolute expiry in Unix milliseconds
func (q *SubscriptionQos) ExpiryDateMs() int64 {
	return q.expiryDateMs
}

// SetExpiryDateMs sets the absolute expiry in Unix milliseconds
func (q *SubscriptionQos) SetExpiryDateMs(expiryDateMs int64) {
	q.expiryDateMs = expiryDateMs
}

// SetValidityMs sets the expiry relative to now
func (q *SubscriptionQos) SetValidityMs(validityMs int64) {
	if validityMs <= 0 {
		q.expiryDateMs = NoExpiryDate
		return
	}
	q.expiryDateMs = now().UnixMilli() + validityMs
}

// PublicationTtlMs returns the publication time-to-live
func (q *SubscriptionQos) PublicationTtlMs() int64 {
	return q.publicationTtlMs
}

// SetPublicationTtlMs sets the publication time-to-live, clamped into range
func (q *SubscriptionQos) SetPublicationTtlMs(ttlMs int64) {
	q.publicationTtlMs = clamp(ttlMs, MinPublicationTtlMs, MaxPublicationTtlMs)
}

// IsExpired reports whether at is past the expiry date
func (q *SubscriptionQos) IsExpired(at time.Time) bool {
	if q.expiryDateMs == NoExpiryDate {
		return false
	}
	return at.UnixMilli() > q.expiryDateMs
}

// Validate rejects a negative expiry date
func (q *SubscriptionQos) Validate() error {
	if q.expiryDateMs < NoExpiryDate {
		return fmt.Errorf("%w: expiryDateMs %d is negative", ErrInvalidQos, q.expiryDateMs)
	}
	return nil
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// OnChangeQos is implemented by descriptors that publish when a value changes.
type OnChangeQos interface {
	Qos
	MinIntervalMs() int64
}

// AcceptedForMulticast reports whether a descriptor may govern a multicast subscription:
// the multicast descriptor itself, the base descriptor, or any on-change descriptor.
func AcceptedForMulticast(q Qos) bool {
	switch q.(type) {
	case *MulticastSubscriptionQos, *SubscriptionQos, OnChangeQos:
		return true
	default:
		return false
	}
}

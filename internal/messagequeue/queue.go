// Package messagequeue holds messages addressed to participants that have no known route yet.
package messagequeue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

var (
	// ErrNilMessage is returned when a nil message is provided
	ErrNilMessage = errors.New("message cannot be nil")
	// ErrEmptyRecipient is returned when a message has no recipient
	ErrEmptyRecipient = errors.New("message recipient cannot be empty")
	// ErrQueueFull is returned when a participant's queue is at capacity
	ErrQueueFull = errors.New("message queue is full")
	// ErrClosed is returned when the queue has been closed
	ErrClosed = errors.New("message queue is closed")
)

// DefaultMaxPerParticipant bounds each participant's queue when no limit is configured
const DefaultMaxPerParticipant = 1000

// Config holds configuration for the message queue
type Config struct {
	// MaxPerParticipant is the number of messages kept per recipient
	MaxPerParticipant int
}

// SetDefaults sets default values for unset configuration fields
func (c *Config) SetDefaults() {
	if c.MaxPerParticipant == 0 {
		c.MaxPerParticipant = DefaultMaxPerParticipant
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.MaxPerParticipant < 0 {
		return fmt.Errorf("max per participant cannot be negative: %d", c.MaxPerParticipant)
	}
	return nil
}

// Statistics provides aggregate statistics about queued messages
type Statistics struct {
	TotalMessages int            // Messages across all participants
	Participants  map[string]int // Messages per participant
}

// InMemoryMessageQueue keeps per-participant FIFO queues in memory.
// It is safe for concurrent use.
type InMemoryMessageQueue struct {
	mu                sync.Mutex
	queues            map[string][]*messaging.Message // participantID -> messages
	maxPerParticipant int
	closed            bool
	now               func() time.Time
}

// New creates a message queue. A nil config selects the defaults.
func New(config *Config) (*InMemoryMessageQueue, error) {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.SetDefaults()

	return &InMemoryMessageQueue{
		queues:            make(map[string][]*messaging.Message),
		maxPerParticipant: cfg.MaxPerParticipant,
		now:               time.Now,
	}, nil
}

// Put queues a message for its recipient.
func (q *InMemoryMessageQueue) Put(ctx context.Context, msg *messaging.Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if msg.Recipient == "" {
		return ErrEmptyRecipient
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	queue := q.queues[msg.Recipient]
	if len(queue) >= q.maxPerParticipant {
		queue = dropExpired(queue, q.now())
		if len(queue) >= q.maxPerParticipant {
			q.queues[msg.Recipient] = queue
			return fmt.Errorf("%w: %s has %d pending messages", ErrQueueFull, msg.Recipient, len(queue))
		}
	}
	q.queues[msg.Recipient] = append(queue, msg)
	return nil
}

// Drain removes and returns the participant's queued messages in arrival order.
// Messages that expired while queued are discarded.
func (q *InMemoryMessageQueue) Drain(ctx context.Context, participantID string) ([]*messaging.Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrClosed
	}

	queue := q.queues[participantID]
	delete(q.queues, participantID)
	return dropExpired(queue, q.now()), nil
}

// Len returns the number of messages queued for a participant
func (q *InMemoryMessageQueue) Len(ctx context.Context, participantID string) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.queues[participantID]), nil
}

// PruneExpired discards expired messages from every queue and returns how many were dropped
func (q *InMemoryMessageQueue) PruneExpired(ctx context.Context) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	dropped := 0
	for participantID, queue := range q.queues {
		kept := dropExpired(queue, now)
		dropped += len(queue) - len(kept)
		if len(kept) == 0 {
			delete(q.queues, participantID)
			continue
		}
		q.queues[participantID] = kept
	}
	return dropped, nil
}

// GetStatistics returns statistics about queued messages
func (q *InMemoryMessageQueue) GetStatistics(ctx context.Context) (Statistics, error) {
	select {
	case <-ctx.Done():
		return Statistics{}, ctx.Err()
	default:
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	stats := Statistics{Participants: make(map[string]int, len(q.queues))}
	for participantID, queue := range q.queues {
		stats.Participants[participantID] = len(queue)
		stats.TotalMessages += len(queue)
	}
	return stats, nil
}

// Close discards all queued messages.
func (q *InMemoryMessageQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.queues = make(map[string][]*messaging.Message)
	q.closed = true
	return nil
}

func dropExpired(queue []*messaging.Message, now time.Time) []*messaging.Message {
	kept := queue[:0]
	for _, msg := range queue {
		if !msg.IsExpired(now) {
			kept = append(kept, msg)
		}
	}
	// clear the tail so dropped messages can be collected
	clear(queue[len(kept):])
	return kept
}

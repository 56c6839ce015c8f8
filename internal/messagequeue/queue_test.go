package messagequeue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

func newQueue(t *testing.T, config *Config) *InMemoryMessageQueue {
	t.Helper()
	q, err := New(config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

func TestMessageQueue_PutAndDrainFIFO(t *testing.T) {
	q := newQueue(t, nil)
	ctx := context.Background()

	first := messaging.NewMessage(messaging.TypeRequest, "consumer", "provider", []byte("1"))
	second := messaging.NewMessage(messaging.TypeRequest, "consumer", "provider", []byte("2"))
	other := messaging.NewMessage(messaging.TypeRequest, "consumer", "other", []byte("3"))

	for _, msg := range []*messaging.Message{first, second, other} {
		if err := q.Put(ctx, msg); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	drained, err := q.Drain(ctx, "provider")
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(drained) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(drained))
	}
	if drained[0] != first || drained[1] != second {
		t.Error("Expected messages in arrival order")
	}

	n, err := q.Len(ctx, "provider")
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected provider queue to be empty after drain, got %d", n)
	}
	n, _ = q.Len(ctx, "other")
	if n != 1 {
		t.Errorf("Expected other queue to be untouched, got %d", n)
	}
}

func TestMessageQueue_DrainDropsExpired(t *testing.T) {
	q := newQueue(t, nil)
	ctx := context.Background()

	base := time.Now()
	q.now = func() time.Time { return base }

	expired := messaging.NewMessage(messaging.TypeRequest, "consumer", "provider", nil)
	expired.ExpiryDate = base.Add(-time.Second)
	live := messaging.NewMessage(messaging.TypeRequest, "consumer", "provider", nil)
	live.ExpiryDate = base.Add(time.Minute)

	if err := q.Put(ctx, expired); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := q.Put(ctx, live); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	drained, err := q.Drain(ctx, "provider")
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(drained) != 1 || drained[0] != live {
		t.Errorf("Expected only the live message, got %d messages", len(drained))
	}
}

func TestMessageQueue_Full(t *testing.T) {
	q := newQueue(t, &Config{MaxPerParticipant: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := q.Put(ctx, messaging.NewMessage(messaging.TypeOneWay, "s", "provider", nil)); err != nil {
			t.Fatalf("Put %d failed: %v", i, err)
		}
	}

	err := q.Put(ctx, messaging.NewMessage(messaging.TypeOneWay, "s", "provider", nil))
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Expected ErrQueueFull, got %v", err)
	}

	// other participants have their own bound
	if err := q.Put(ctx, messaging.NewMessage(messaging.TypeOneWay, "s", "other", nil)); err != nil {
		t.Errorf("Expected other participant to accept messages, got %v", err)
	}
}

func TestMessageQueue_FullQueueReclaimsExpired(t *testing.T) {
	q := newQueue(t, &Config{MaxPerParticipant: 1})
	ctx := context.Background()

	base := time.Now()
	q.now = func() time.Time { return base }

	stale := messaging.NewMessage(messaging.TypeOneWay, "s", "provider", nil)
	stale.ExpiryDate = base.Add(-time.Millisecond)
	if err := q.Put(ctx, stale); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := q.Put(ctx, messaging.NewMessage(messaging.TypeOneWay, "s", "provider", nil)); err != nil {
		t.Errorf("Expected expired message to make room, got %v", err)
	}
}

func TestMessageQueue_PutValidation(t *testing.T) {
	q := newQueue(t, nil)
	ctx := context.Background()

	if err := q.Put(ctx, nil); !errors.Is(err, ErrNilMessage) {
		t.Errorf("Expected ErrNilMessage, got %v", err)
	}
	if err := q.Put(ctx, messaging.NewMessage(messaging.TypeOneWay, "s", "", nil)); !errors.Is(err, ErrEmptyRecipient) {
		t.Errorf("Expected ErrEmptyRecipient, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.Put(cancelled, messaging.NewMessage(messaging.TypeOneWay, "s", "r", nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestMessageQueue_PruneExpiredAndStatistics(t *testing.T) {
	q := newQueue(t, nil)
	ctx := context.Background()

	base := time.Now()
	q.now = func() time.Time { return base }

	for _, recipient := range []string{"a", "a", "b"} {
		msg := messaging.NewMessage(messaging.TypeOneWay, "s", recipient, nil)
		msg.ExpiryDate = base.Add(time.Second)
		if err := q.Put(ctx, msg); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if err := q.Put(ctx, messaging.NewMessage(messaging.TypeOneWay, "s", "b", nil)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stats, err := q.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.TotalMessages != 4 || stats.Participants["a"] != 2 || stats.Participants["b"] != 2 {
		t.Errorf("Unexpected statistics %+v", stats)
	}

	q.now = func() time.Time { return base.Add(time.Minute) }
	dropped, err := q.PruneExpired(ctx)
	if err != nil {
		t.Fatalf("PruneExpired failed: %v", err)
	}
	if dropped != 3 {
		t.Errorf("Expected 3 dropped messages, got %d", dropped)
	}

	stats, _ = q.GetStatistics(ctx)
	if stats.TotalMessages != 1 {
		t.Errorf("Expected 1 message left, got %d", stats.TotalMessages)
	}
	if _, ok := stats.Participants["a"]; ok {
		t.Error("Expected empty participant queue to be removed")
	}
}

func TestMessageQueue_Close(t *testing.T) {
	q, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if err := q.Put(ctx, messaging.NewMessage(messaging.TypeOneWay, "s", "r", nil)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("Close should be idempotent, got %v", err)
	}
	if err := q.Put(ctx, messaging.NewMessage(messaging.TypeOneWay, "s", "r", nil)); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := q.Drain(ctx, "r"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	if _, err := New(&Config{MaxPerParticipant: -1}); err == nil {
		t.Error("Expected error for negative max per participant")
	}

	cfg := Config{}
	cfg.SetDefaults()
	if cfg.MaxPerParticipant != DefaultMaxPerParticipant {
		t.Errorf("Expected default %d, got %d", DefaultMaxPerParticipant, cfg.MaxPerParticipant)
	}
}

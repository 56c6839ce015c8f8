package messagerouter

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

// pausingHandler parks the first goroutine that logs the given message until released
type pausingHandler struct {
	message string
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func newPausingHandler(message string) *pausingHandler {
	return &pausingHandler{
		message: message,
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (h *pausingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *pausingHandler) Handle(_ context.Context, r slog.Record) error {
	if r.Message != h.message {
		return nil
	}
	first := false
	h.once.Do(func() { first = true })
	if first {
		close(h.reached)
		<-h.release
	}
	return nil
}

func (h *pausingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *pausingHandler) WithGroup(string) slog.Handler      { return h }

func TestRouter_NextHopAddedDuringLookupMiss(t *testing.T) {
	factory := newStubFactory(messaging.KindInProcess)
	handler := newPausingHandler("routing table miss")
	r, err := New(&Config{Logger: slog.New(handler)}, factory)
	require.NoError(t, err)
	defer r.Close()
	ctx := context.Background()

	msg := messaging.NewMessage(messaging.TypeOneWay, "consumer", "p1", []byte("hello"))
	routed := make(chan error, 1)
	go func() { routed <- r.Route(ctx, msg) }()

	select {
	case <-handler.reached:
	case <-time.After(2 * time.Second):
		t.Fatal("Route never missed the routing table")
	}

	// Route is parked between its lookup miss and the enqueue
	address := messaging.InProcessAddress{ParticipantID: "p1"}
	added := make(chan error, 1)
	go func() { added <- r.AddNextHop(ctx, "p1", address) }()
	time.Sleep(50 * time.Millisecond)
	close(handler.release)

	require.NoError(t, <-routed)
	require.NoError(t, <-added)

	stub := factory.stub(address)
	require.NotNil(t, stub, "queued message was flushed to the new route")
	assert.Equal(t, []*messaging.Message{msg}, stub.received())

	health, err := r.GetHealth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, health.QueuedMessages)
}

func TestRouter_ConcurrentRouteAndAddNextHop(t *testing.T) {
	factory := newStubFactory(messaging.KindInProcess)
	r := newRouter(t, factory)
	ctx := context.Background()

	const participants = 50
	var wg sync.WaitGroup
	for i := range participants {
		id := "p" + string(rune('A'+i%26)) + string(rune('a'+i/26))
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Route(ctx, messaging.NewMessage(messaging.TypeOneWay, "c", id, nil)))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, r.AddNextHop(ctx, id, messaging.InProcessAddress{ParticipantID: id}))
		}()
	}
	wg.Wait()

	health, err := r.GetHealth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, health.QueuedMessages, "no message is stranded behind an existing route")
	assert.Equal(t, participants, health.Routes)
}

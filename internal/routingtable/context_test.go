package routingtable

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

func TestInMemoryRoutingTable_ContextCancellation(t *testing.T) {
	rt := NewInMemoryRoutingTable(nil)
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := rt.Put(ctx, "provider-1", messaging.InProcessAddress{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled from Put, got %v", err)
	}
	if _, _, err := rt.Get(ctx, "provider-1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled from Get, got %v", err)
	}
	if _, err := rt.Entries(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled from Entries, got %v", err)
	}
}

func TestInMemoryRoutingTable_ContextTimeout(t *testing.T) {
	rt := NewInMemoryRoutingTable(nil)
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	if err := rt.Remove(ctx, "provider-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
	if _, err := rt.Count(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}

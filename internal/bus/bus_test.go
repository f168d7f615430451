package bus

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/tjfontaine/openalerts/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestPublishReachesAllListeners(t *testing.T) {
	b := New(testLogger())
	var got []string
	b.Subscribe(func(ctx context.Context, e domain.Event) error {
		got = append(got, "a:"+string(e.Type))
		return nil
	})
	b.Subscribe(func(ctx context.Context, e domain.Event) error {
		got = append(got, "b:"+string(e.Type))
		return nil
	})

	b.Publish(context.Background(), domain.NewEvent(domain.EventToolCall))

	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(testLogger())
	calls := 0
	unsub := b.Subscribe(func(ctx context.Context, e domain.Event) error {
		calls++
		return nil
	})

	b.Publish(context.Background(), domain.NewEvent(domain.EventToolCall))
	unsub()
	unsub() // second call is harmless
	b.Publish(context.Background(), domain.NewEvent(domain.EventToolCall))

	if calls != 1 {
		t.Errorf("expected 1 call after unsubscribe, got %d", calls)
	}
	if b.Size() != 0 {
		t.Errorf("expected empty bus, got %d listeners", b.Size())
	}
}

func TestListenerErrorDoesNotBlockOthers(t *testing.T) {
	b := New(testLogger())
	b.Subscribe(func(ctx context.Context, e domain.Event) error {
		return errors.New("boom")
	})
	delivered := false
	b.Subscribe(func(ctx context.Context, e domain.Event) error {
		delivered = true
		return nil
	})

	b.Publish(context.Background(), domain.NewEvent(domain.EventModelError))

	if !delivered {
		t.Errorf("second listener should still be invoked")
	}
}

func TestListenerPanicIsIsolated(t *testing.T) {
	b := New(testLogger())
	b.Subscribe(func(ctx context.Context, e domain.Event) error {
		panic("listener bug")
	})
	delivered := false
	b.Subscribe(func(ctx context.Context, e domain.Event) error {
		delivered = true
		return nil
	})

	b.Publish(context.Background(), domain.NewEvent(domain.EventModelError))

	if !delivered {
		t.Errorf("panicking listener should not abort delivery")
	}
}

func TestClear(t *testing.T) {
	b := New(testLogger())
	b.Subscribe(func(ctx context.Context, e domain.Event) error { return nil })
	b.Subscribe(func(ctx context.Context, e domain.Event) error { return nil })
	b.Clear()
	if b.Size() != 0 {
		t.Errorf("expected 0 listeners after Clear, got %d", b.Size())
	}
}

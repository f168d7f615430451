// Package bus provides the in-process publish/subscribe broadcaster that
// fans ingested events out to engine internals and dashboard streams.
package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tjfontaine/openalerts/internal/domain"
)

// Listener receives every published event. A listener that returns an error
// (or panics) is logged and never aborts delivery to the remaining
// listeners.
type Listener func(ctx context.Context, event domain.Event) error

// Bus broadcasts events to a set of listeners. Listeners are deduplicated
// by subscription identity: each Subscribe call registers exactly one slot,
// released by the returned unsubscribe function. All listeners for one
// event complete before Publish returns.
type Bus struct {
	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
	logger    *slog.Logger
}

// New creates an empty Bus.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Bus) Subscribe(l Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Publish invokes every currently registered listener with the event.
// Listener failures are logged and isolated; Publish never returns an
// error to the caller.
func (b *Bus) Publish(ctx context.Context, event domain.Event) {
	b.mu.RLock()
	snapshot := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		snapshot = append(snapshot, l)
	}
	b.mu.RUnlock()

	for _, l := range snapshot {
		b.invoke(ctx, l, event)
	}
}

func (b *Bus) invoke(ctx context.Context, l Listener, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked",
				slog.String("event_type", string(event.Type)),
				slog.Any("panic", r))
		}
	}()
	if err := l(ctx, event); err != nil {
		b.logger.Error("event listener failed",
			slog.String("event_type", string(event.Type)),
			slog.String("error", err.Error()))
	}
}

// Clear removes all listeners.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.listeners = make(map[int]Listener)
	b.mu.Unlock()
}

// Size returns the number of registered listeners.
func (b *Bus) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

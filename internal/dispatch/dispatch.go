// Package dispatch fans alerts out to every configured delivery channel
// concurrently, isolating channel failures from one another.
package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tjfontaine/openalerts/internal/channels"
	"github.com/tjfontaine/openalerts/internal/domain"
)

// Dispatcher sends each alert to all channels in parallel. Dispatch blocks
// until every channel has settled; a failing or panicking channel is logged
// and never affects the others.
type Dispatcher struct {
	mu       sync.RWMutex
	channels []channels.Channel
	logger   *slog.Logger
}

// New creates a Dispatcher with no channels.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// AddChannel registers a delivery channel.
func (d *Dispatcher) AddChannel(ch channels.Channel) {
	d.mu.Lock()
	d.channels = append(d.channels, ch)
	d.mu.Unlock()
}

// ChannelCount returns the number of registered channels.
func (d *Dispatcher) ChannelCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.channels)
}

// Dispatch sends the alert to every channel and waits for all of them.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *domain.Alert) {
	d.mu.RLock()
	snapshot := make([]channels.Channel, len(d.channels))
	copy(snapshot, d.channels)
	d.mu.RUnlock()

	var wg sync.WaitGroup
	for _, ch := range snapshot {
		wg.Add(1)
		go func(ch channels.Channel) {
			defer wg.Done()
			d.send(ctx, ch, alert)
		}(ch)
	}
	wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, ch channels.Channel, alert *domain.Alert) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("channel panicked",
				slog.String("channel", ch.Name()),
				slog.Any("panic", r))
		}
	}()
	if err := ch.Send(ctx, alert); err != nil {
		d.logger.Error("alert delivery failed",
			slog.String("channel", ch.Name()),
			slog.String("rule", alert.RuleID),
			slog.String("error", err.Error()))
		return
	}
	d.logger.Debug("alert delivered",
		slog.String("channel", ch.Name()),
		slog.String("rule", alert.RuleID))
}

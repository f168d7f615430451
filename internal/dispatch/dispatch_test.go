package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/tjfontaine/openalerts/internal/domain"
)

type recordingChannel struct {
	name string
	err  error
	mu   sync.Mutex
	sent []*domain.Alert
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Send(ctx context.Context, alert *domain.Alert) error {
	c.mu.Lock()
	c.sent = append(c.sent, alert)
	c.mu.Unlock()
	return c.err
}

func (c *recordingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type panickingChannel struct{}

func (panickingChannel) Name() string { return "panicky" }
func (panickingChannel) Send(ctx context.Context, alert *domain.Alert) error {
	panic("channel bug")
}

func testAlert() *domain.Alert {
	return &domain.Alert{RuleID: "model-errors", Severity: domain.SeverityError}
}

func TestDispatchReachesAllChannels(t *testing.T) {
	d := New(slog.New(slog.DiscardHandler))
	a := &recordingChannel{name: "a"}
	b := &recordingChannel{name: "b"}
	d.AddChannel(a)
	d.AddChannel(b)

	d.Dispatch(context.Background(), testAlert())

	if a.count() != 1 || b.count() != 1 {
		t.Errorf("deliveries: a=%d b=%d", a.count(), b.count())
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	d := New(slog.New(slog.DiscardHandler))
	failing := &recordingChannel{name: "bad", err: errors.New("refused")}
	healthy := &recordingChannel{name: "good"}
	d.AddChannel(failing)
	d.AddChannel(healthy)

	d.Dispatch(context.Background(), testAlert())

	if healthy.count() != 1 {
		t.Errorf("healthy channel should still deliver")
	}
}

func TestDispatchIsolatesPanics(t *testing.T) {
	d := New(slog.New(slog.DiscardHandler))
	healthy := &recordingChannel{name: "good"}
	d.AddChannel(panickingChannel{})
	d.AddChannel(healthy)

	d.Dispatch(context.Background(), testAlert())

	if healthy.count() != 1 {
		t.Errorf("panicking channel should not take down the dispatch")
	}
}

func TestDispatchNoChannels(t *testing.T) {
	d := New(slog.New(slog.DiscardHandler))
	d.Dispatch(context.Background(), testAlert())
	if d.ChannelCount() != 0 {
		t.Errorf("count = %d", d.ChannelCount())
	}
}

// Package engine wires the bus, evaluator, store, and dispatcher into the
// monitoring pipeline and owns its lifecycle.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/openalerts/internal/bus"
	"github.com/tjfontaine/openalerts/internal/channels"
	"github.com/tjfontaine/openalerts/internal/config"
	"github.com/tjfontaine/openalerts/internal/dispatch"
	"github.com/tjfontaine/openalerts/internal/domain"
	"github.com/tjfontaine/openalerts/internal/evaluator"
	"github.com/tjfontaine/openalerts/internal/ring"
	"github.com/tjfontaine/openalerts/internal/rules"
	"github.com/tjfontaine/openalerts/internal/store"
)

type engineState int

const (
	stateStopped engineState = iota
	stateStarting
	stateRunning
	stateStopping
)

const (
	liveEventCapacity   = 500
	recentAlertCapacity = 50
	pruneInterval       = 6 * time.Hour

	// firedRecency is how recently a rule must have fired to be reported
	// as "fired" in snapshots.
	firedRecency = 900.0
)

// AlertListener is notified after an alert survives suppression, in ingest
// order.
type AlertListener func(alert domain.Alert)

// Engine is the monitoring pipeline: events go in through Ingest, alerts
// come out through the dispatcher, the alert listeners, and the persistent
// log. Construct with New, then Start before ingesting.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
	tracer trace.Tracer

	bus        *bus.Bus
	evaluator  *evaluator.Evaluator
	dispatcher *dispatch.Dispatcher
	store      *store.Store
	rules      []rules.Rule

	extraChannels []channels.Channel
	persistEvents bool

	// procMu serializes event processing end to end so rule windows,
	// cooldowns, and counters observe events in ingest order.
	procMu sync.Mutex
	state  *evaluator.State

	liveEvents   *ring.Buffer[domain.Event]
	recentAlerts *ring.Buffer[domain.Alert]

	alertMu        sync.RWMutex
	alertListeners map[int]AlertListener
	nextListenerID int

	lifeMu    sync.Mutex
	lifecycle engineState
	cancel    context.CancelFunc
	pruneDone chan struct{}
	startedAt time.Time
	unsub     func()
}

// New creates an Engine from configuration. Delivery channels are built
// from cfg.Channels; a channel that fails to construct is logged and
// skipped rather than failing the engine.
func New(cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		cfg:            cfg,
		logger:         slog.Default(),
		rules:          rules.Builtin(),
		state:          evaluator.NewState(),
		liveEvents:     ring.New[domain.Event](liveEventCapacity),
		recentAlerts:   ring.New[domain.Alert](recentAlertCapacity),
		alertListeners: make(map[int]AlertListener),
		store:          store.New(cfg.StateDir),
		persistEvents:  true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tracer = otel.Tracer("openalerts/engine")
	e.bus = bus.New(e.logger)
	e.evaluator = evaluator.New(cfg, e.rules, e.logger)
	e.dispatcher = dispatch.New(e.logger)
	for _, cc := range cfg.Channels {
		ch, err := channels.FromConfig(cc)
		if err != nil {
			e.logger.Warn("skipping channel",
				slog.String("type", cc.Type),
				slog.String("error", err.Error()))
			continue
		}
		e.dispatcher.AddChannel(ch)
	}
	for _, ch := range e.extraChannels {
		e.dispatcher.AddChannel(ch)
	}
	return e
}

// Start prepares the state directory, warms cooldowns and display buffers
// from the persisted log, subscribes the processing listener, and launches
// the prune loop. Starting a started engine is an error.
func (e *Engine) Start(ctx context.Context) error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.lifecycle != stateStopped {
		return fmt.Errorf("engine already started")
	}
	e.lifecycle = stateStarting

	if e.cfg.StateDir != "" {
		if err := os.MkdirAll(e.cfg.StateDir, 0o755); err != nil {
			e.lifecycle = stateStopped
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	if e.cfg.Persist {
		e.warmFromHistory()
	}

	e.unsub = e.bus.Subscribe(func(ctx context.Context, event domain.Event) error {
		e.process(ctx, event)
		return nil
	})

	pruneCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.pruneDone = make(chan struct{})
	go e.pruneLoop(pruneCtx)

	e.startedAt = time.Now()
	e.lifecycle = stateRunning
	e.logger.Info("engine started",
		slog.String("state_dir", e.cfg.StateDir),
		slog.Int("channels", e.dispatcher.ChannelCount()),
		slog.Int("rules", len(e.rules)),
		slog.Bool("quiet", e.cfg.Quiet))
	return nil
}

// Stop halts ingestion, stops the prune loop, and clears bus listeners.
// Stopping a stopped engine is a no-op.
func (e *Engine) Stop(ctx context.Context) error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.lifecycle != stateRunning {
		return nil
	}
	e.lifecycle = stateStopping

	e.cancel()
	select {
	case <-e.pruneDone:
	case <-ctx.Done():
		e.logger.Warn("prune loop did not stop before deadline")
	}
	if e.unsub != nil {
		e.unsub()
	}
	e.bus.Clear()
	e.lifecycle = stateStopped
	e.logger.Info("engine stopped")
	return nil
}

// Running reports whether the engine accepts events.
func (e *Engine) Running() bool {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	return e.lifecycle == stateRunning
}

// Bus exposes the event bus so dashboards and adapters can subscribe.
func (e *Engine) Bus() *bus.Bus { return e.bus }

// Ingest accepts one event into the pipeline. Events ingested before Start
// or after Stop are dropped. Ingest returns after the event has been fully
// processed: counted, persisted, evaluated, and any resulting alerts
// dispatched.
func (e *Engine) Ingest(ctx context.Context, event domain.Event) {
	if !e.Running() {
		return
	}
	if event.TS == 0 {
		event.TS = domain.Now()
	}
	if event.Severity == "" {
		event.Severity = domain.SeverityInfo
	}
	ctx, span := e.tracer.Start(ctx, "engine.ingest",
		trace.WithAttributes(attribute.String("event.type", string(event.Type))))
	defer span.End()

	e.bus.Publish(ctx, event)
}

// process is the bus listener doing the actual pipeline work. procMu makes
// the whole pipeline run for one event at a time.
func (e *Engine) process(ctx context.Context, event domain.Event) {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	e.liveEvents.Add(event)
	e.state.CountEvent(event)

	if e.cfg.Persist && e.persistEvents {
		if err := e.store.AppendEvent(event); err != nil {
			e.logger.Error("event persistence failed",
				slog.String("error", err.Error()))
		}
	}

	for _, alert := range e.evaluator.Process(e.state, event) {
		e.emitAlert(ctx, alert)
	}
}

func (e *Engine) emitAlert(ctx context.Context, alert domain.Alert) {
	e.recentAlerts.Add(alert)
	e.logger.Info("alert fired",
		slog.String("rule", alert.RuleID),
		slog.String("severity", string(alert.Severity)),
		slog.String("fingerprint", alert.Fingerprint))

	if e.cfg.Persist {
		if err := e.store.AppendAlert(alert); err != nil {
			e.logger.Error("alert persistence failed",
				slog.String("error", err.Error()))
		}
	}
	if !e.cfg.Quiet {
		e.dispatcher.Dispatch(ctx, &alert)
	}
	e.notifyAlertListeners(alert)
}

// OnAlert registers a listener called for every alert that survives
// suppression, including in quiet mode. Returns an unsubscribe function.
func (e *Engine) OnAlert(l AlertListener) func() {
	e.alertMu.Lock()
	id := e.nextListenerID
	e.nextListenerID++
	e.alertListeners[id] = l
	e.alertMu.Unlock()
	return func() {
		e.alertMu.Lock()
		delete(e.alertListeners, id)
		e.alertMu.Unlock()
	}
}

func (e *Engine) notifyAlertListeners(alert domain.Alert) {
	e.alertMu.RLock()
	snapshot := make([]AlertListener, 0, len(e.alertListeners))
	for _, l := range e.alertListeners {
		snapshot = append(snapshot, l)
	}
	e.alertMu.RUnlock()
	for _, l := range snapshot {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("alert listener panicked", slog.Any("panic", r))
				}
			}()
			l(alert)
		}()
	}
}

// SendTestAlert pushes a synthetic info alert through delivery so channel
// configuration can be verified end to end. It bypasses cooldowns, the
// hourly cap, and quiet mode, and is never persisted.
func (e *Engine) SendTestAlert(ctx context.Context) {
	alert := domain.Alert{
		RuleID:      "test",
		Severity:    domain.SeverityInfo,
		Title:       "Test Alert",
		Detail:      "This is a test alert from OpenAlerts.",
		Fingerprint: rules.Fingerprint("test"),
		TS:          domain.Now(),
	}
	e.dispatcher.Dispatch(ctx, &alert)
}

// RecentLiveEvents returns up to limit of the most recent ingested events,
// oldest first.
func (e *Engine) RecentLiveEvents(limit int) []domain.Event {
	return e.liveEvents.Last(limit)
}

// RecentAlerts returns up to limit of the most recent alerts, oldest first.
func (e *Engine) RecentAlerts(limit int) []domain.Alert {
	return e.recentAlerts.Last(limit)
}

func (e *Engine) warmFromHistory() {
	n, err := e.store.WarmCooldowns(func(fp string, ts float64) {
		e.state.Cooldowns.Set(fp, ts)
	})
	if err != nil {
		e.logger.Warn("cooldown warm-up failed", slog.String("error", err.Error()))
		return
	}
	h, err := e.store.LoadHistory(liveEventCapacity, recentAlertCapacity)
	if err != nil {
		e.logger.Warn("history load failed", slog.String("error", err.Error()))
		return
	}
	for _, ev := range h.Events {
		e.liveEvents.Add(ev)
	}
	for _, a := range h.Alerts {
		e.recentAlerts.Add(a)
	}
	if n > 0 || len(h.Events) > 0 {
		e.logger.Info("state warmed from history",
			slog.Int("events", len(h.Events)),
			slog.Int("alerts", n))
	}
}

func (e *Engine) pruneLoop(ctx context.Context) {
	defer close(e.pruneDone)
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.cfg.Persist {
				continue
			}
			if err := e.store.Prune(e.cfg.MaxLogSizeKB, e.cfg.MaxLogAgeDays); err != nil {
				e.logger.Error("log prune failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Package evaluator runs every ingested event through the rule set and
// applies the suppression pipeline: per-rule enablement, fingerprint
// cooldowns, and the global hourly alert cap.
package evaluator

import (
	"log/slog"

	"github.com/tjfontaine/openalerts/internal/config"
	"github.com/tjfontaine/openalerts/internal/domain"
	"github.com/tjfontaine/openalerts/internal/rules"
)

// hourlyBucketSeconds is the span of the fixed rate-limit bucket.
const hourlyBucketSeconds = 3600

// Evaluator applies the rule set to incoming events. It is not safe for
// concurrent use; the engine serializes calls to Process.
type Evaluator struct {
	cfg    *config.Config
	rules  []rules.Rule
	logger *slog.Logger
}

// New creates an Evaluator over the given rule set.
func New(cfg *config.Config, ruleSet []rules.Rule, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{cfg: cfg, rules: ruleSet, logger: logger}
}

// Rules returns the evaluator's rule set in evaluation order.
func (ev *Evaluator) Rules() []rules.Rule {
	return ev.rules
}

// Process records the event into every rule window, evaluates each rule in
// order, and returns the alerts that survive suppression. Suppressed or
// rate-limited alerts are logged at debug level and dropped.
func (ev *Evaluator) Process(state *State, event domain.Event) []domain.Alert {
	now := domain.Now()
	if now-state.HourStart >= hourlyBucketSeconds {
		state.HourStart = now
		state.AlertsThisHour = 0
	}

	for _, r := range ev.rules {
		state.Window(r.ID()).Add(event)
	}

	rctx := &ruleContext{state: state, cfg: ev.cfg}

	var fired []domain.Alert
	for _, r := range ev.rules {
		if !ev.cfg.RuleEnabled(r.ID()) {
			continue
		}
		alert := r.Evaluate(event, rctx)
		if alert == nil {
			continue
		}
		if lastTS, ok := state.Cooldowns.Get(alert.Fingerprint); ok {
			cooldown := ev.cfg.RuleCooldown(r.ID(), r.DefaultCooldownSeconds())
			if now-lastTS < float64(cooldown) {
				ev.logger.Debug("alert suppressed by cooldown",
					slog.String("rule", r.ID()),
					slog.String("fingerprint", alert.Fingerprint))
				continue
			}
		}
		if state.AlertsThisHour >= ev.cfg.MaxAlertsPerHour {
			// Rate-limited alerts do not consume a slot or touch the
			// cooldown map, so the condition can fire when the bucket
			// resets.
			ev.logger.Debug("alert suppressed by hourly cap",
				slog.String("rule", r.ID()))
			continue
		}
		state.Cooldowns.Set(alert.Fingerprint, now)
		state.AlertsThisHour++
		state.FiredCounts[r.ID()]++
		fired = append(fired, *alert)
	}
	return fired
}

// ruleContext adapts evaluator state to the rules.Context interface.
type ruleContext struct {
	state *State
	cfg   *config.Config
}

func (c *ruleContext) Window(ruleID string, windowSeconds float64) []domain.Event {
	cutoff := domain.Now() - windowSeconds
	var out []domain.Event
	for _, e := range c.state.Window(ruleID).All() {
		if e.TS >= cutoff {
			out = append(out, e)
		}
	}
	return out
}

func (c *ruleContext) Threshold(ruleID string, def float64) float64 {
	return c.cfg.RuleThreshold(ruleID, def)
}

package engine

import (
	"log/slog"

	"github.com/tjfontaine/openalerts/internal/channels"
	"github.com/tjfontaine/openalerts/internal/rules"
)

// Option configures an Engine during construction.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRules replaces the built-in rule set. Mainly for tests.
func WithRules(ruleSet []rules.Rule) Option {
	return func(e *Engine) {
		e.rules = ruleSet
	}
}

// WithChannel registers an additional delivery channel beyond those built
// from configuration.
func WithChannel(ch channels.Channel) Option {
	return func(e *Engine) {
		e.extraChannels = append(e.extraChannels, ch)
	}
}

// WithoutEventPersistence keeps alerts in the log but stops the engine from
// appending events. Used when events are tailed from a log another process
// already writes, where re-appending them would loop.
func WithoutEventPersistence() Option {
	return func(e *Engine) {
		e.persistEvents = false
	}
}

// Package rules defines the alert rule contract and the built-in rule
// catalogue. Rules are stateless; all history they need is provided through
// the Context by the evaluator.
package rules

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/tjfontaine/openalerts/internal/domain"
)

// Context exposes evaluator state to a rule during evaluation.
type Context interface {
	// Window returns the rule's stored events whose timestamp falls within
	// the last windowSeconds.
	Window(ruleID string, windowSeconds float64) []domain.Event

	// Threshold returns the configured threshold override for the rule, or
	// def when none is set.
	Threshold(ruleID string, def float64) float64
}

// Rule is a single stateless alerting policy. Implementations are
// registered once at engine construction in a fixed order and identified by
// ID.
type Rule interface {
	// ID uniquely identifies the rule and keys its window, overrides, and
	// fired-count diagnostics.
	ID() string

	// DefaultCooldownSeconds is the cooldown applied when neither a
	// per-rule override nor a global default is configured.
	DefaultCooldownSeconds() int

	// DefaultThreshold is the threshold used when no override is set.
	DefaultThreshold() float64

	// Evaluate inspects the event and returns an alert, or nil when the
	// rule does not match. Cooldown and rate limiting are applied by the
	// evaluator, not here.
	Evaluate(event domain.Event, ctx Context) *domain.Alert
}

// Fingerprint derives the deterministic cooldown key for an alert
// condition: a short stable hash of the rule id plus its discriminating
// parts.
func Fingerprint(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])[:12]
}

// Builtin returns the fixed, ordered rule set evaluated for every event.
func Builtin() []Rule {
	return []Rule{
		ModelErrorsRule{},
		ToolErrorsRule{},
		AgentStuckRule{},
		TokenLimitRule{},
		StepLimitWarningRule{},
		HighErrorRateRule{},
	}
}

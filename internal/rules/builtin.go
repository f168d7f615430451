package rules

import (
	"fmt"

	"github.com/tjfontaine/openalerts/internal/domain"
)

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// ModelErrorsRule fires when the count of model errors within the last 60
// seconds reaches the threshold.
type ModelErrorsRule struct{}

func (ModelErrorsRule) ID() string                  { return "model-errors" }
func (ModelErrorsRule) DefaultCooldownSeconds() int { return 900 }
func (ModelErrorsRule) DefaultThreshold() float64   { return 1 }

func (r ModelErrorsRule) Evaluate(event domain.Event, ctx Context) *domain.Alert {
	if event.Type != domain.EventModelError {
		return nil
	}
	var errs []domain.Event
	for _, e := range ctx.Window(r.ID(), 60) {
		if e.Type == domain.EventModelError {
			errs = append(errs, e)
		}
	}
	threshold := ctx.Threshold(r.ID(), r.DefaultThreshold())
	if float64(len(errs)) < threshold {
		return nil
	}
	return &domain.Alert{
		RuleID:   r.ID(),
		Severity: domain.SeverityError,
		Title:    "LLM API Errors Detected",
		Detail: fmt.Sprintf("%d LLM error(s) in the last 60s. Latest: %s",
			len(errs), orUnknown(event.Error)),
		Fingerprint: Fingerprint(r.ID()),
		TS:          domain.Now(),
		Events:      errs,
	}
}

// ToolErrorsRule fires when tool errors within the last 60 seconds reach
// the threshold. The fingerprint includes the tool name so distinct tools
// get distinct cooldown slots.
type ToolErrorsRule struct{}

func (ToolErrorsRule) ID() string                  { return "tool-errors" }
func (ToolErrorsRule) DefaultCooldownSeconds() int { return 900 }
func (ToolErrorsRule) DefaultThreshold() float64   { return 1 }

func (r ToolErrorsRule) Evaluate(event domain.Event, ctx Context) *domain.Alert {
	if event.Type != domain.EventToolError {
		return nil
	}
	var errs []domain.Event
	for _, e := range ctx.Window(r.ID(), 60) {
		if e.Type == domain.EventToolError {
			errs = append(errs, e)
		}
	}
	threshold := ctx.Threshold(r.ID(), r.DefaultThreshold())
	if float64(len(errs)) < threshold {
		return nil
	}
	return &domain.Alert{
		RuleID:   r.ID(),
		Severity: domain.SeverityWarn,
		Title:    "Tool Execution Errors",
		Detail: fmt.Sprintf("%d tool error(s) in the last 60s. Tool: %s",
			len(errs), orUnknown(event.ToolName)),
		Fingerprint: Fingerprint(r.ID(), event.ToolName),
		TS:          domain.Now(),
		Events:      errs,
	}
}

// AgentStuckRule fires immediately on every agent.stuck event; the
// threshold is unused.
type AgentStuckRule struct{}

func (AgentStuckRule) ID() string                  { return "agent-stuck" }
func (AgentStuckRule) DefaultCooldownSeconds() int { return 900 }
func (AgentStuckRule) DefaultThreshold() float64   { return 1 }

func (r AgentStuckRule) Evaluate(event domain.Event, ctx Context) *domain.Alert {
	if event.Type != domain.EventAgentStuck {
		return nil
	}
	return &domain.Alert{
		RuleID:   r.ID(),
		Severity: domain.SeverityWarn,
		Title:    "Agent Stuck",
		Detail: fmt.Sprintf("Agent '%s' appears stuck (repeating actions).",
			orUnknown(event.AgentName)),
		Fingerprint: Fingerprint(r.ID(), event.AgentName),
		TS:          domain.Now(),
		Events:      []domain.Event{event},
	}
}

// TokenLimitRule fires immediately on every token.limit_exceeded event.
type TokenLimitRule struct{}

func (TokenLimitRule) ID() string                  { return "token-limit" }
func (TokenLimitRule) DefaultCooldownSeconds() int { return 900 }
func (TokenLimitRule) DefaultThreshold() float64   { return 1 }

func (r TokenLimitRule) Evaluate(event domain.Event, ctx Context) *domain.Alert {
	if event.Type != domain.EventTokenLimit {
		return nil
	}
	return &domain.Alert{
		RuleID:   r.ID(),
		Severity: domain.SeverityError,
		Title:    "Token Limit Exceeded",
		Detail: fmt.Sprintf("Agent '%s' exceeded token limit.",
			orUnknown(event.AgentName)),
		Fingerprint: Fingerprint(r.ID(), event.AgentName),
		TS:          domain.Now(),
		Events:      []domain.Event{event},
	}
}

// StepLimitWarningRule fires when an agent.step event shows the agent has
// consumed at least the threshold percentage of its step budget.
type StepLimitWarningRule struct{}

func (StepLimitWarningRule) ID() string                  { return "step-limit-warning" }
func (StepLimitWarningRule) DefaultCooldownSeconds() int { return 900 }
func (StepLimitWarningRule) DefaultThreshold() float64   { return 80 }

func (r StepLimitWarningRule) Evaluate(event domain.Event, ctx Context) *domain.Alert {
	if event.Type != domain.EventAgentStep {
		return nil
	}
	if event.StepNumber == nil || event.MaxSteps == nil || *event.MaxSteps == 0 {
		return nil
	}
	pct := float64(*event.StepNumber) / float64(*event.MaxSteps) * 100
	if pct < ctx.Threshold(r.ID(), r.DefaultThreshold()) {
		return nil
	}
	return &domain.Alert{
		RuleID:   r.ID(),
		Severity: domain.SeverityWarn,
		Title:    "Step Limit Warning",
		Detail: fmt.Sprintf("Agent '%s' at step %d/%d (%.0f%%).",
			orUnknown(event.AgentName), *event.StepNumber, *event.MaxSteps, pct),
		Fingerprint: Fingerprint(r.ID(), event.AgentName),
		TS:          domain.Now(),
		Events:      []domain.Event{event},
	}
}

// highErrorRateSample is the number of recent tool events the error rate is
// computed over. Fewer samples than this and the rule stays silent.
const highErrorRateSample = 20

// HighErrorRateRule fires when the error fraction of the most recent 20
// tool events (within the last 300 seconds) strictly exceeds the threshold
// percentage.
type HighErrorRateRule struct{}

func (HighErrorRateRule) ID() string                  { return "high-error-rate" }
func (HighErrorRateRule) DefaultCooldownSeconds() int { return 900 }
func (HighErrorRateRule) DefaultThreshold() float64   { return 50 }

func (r HighErrorRateRule) Evaluate(event domain.Event, ctx Context) *domain.Alert {
	if event.Type != domain.EventToolCall && event.Type != domain.EventToolError {
		return nil
	}
	var toolEvents []domain.Event
	for _, e := range ctx.Window(r.ID(), 300) {
		if e.Type == domain.EventToolCall || e.Type == domain.EventToolError {
			toolEvents = append(toolEvents, e)
		}
	}
	if len(toolEvents) < highErrorRateSample {
		return nil
	}
	recent := toolEvents[len(toolEvents)-highErrorRateSample:]
	errors := 0
	for _, e := range recent {
		if e.Type == domain.EventToolError {
			errors++
		}
	}
	rate := float64(errors) / float64(highErrorRateSample) * 100
	if rate <= ctx.Threshold(r.ID(), r.DefaultThreshold()) {
		return nil
	}
	return &domain.Alert{
		RuleID:   r.ID(),
		Severity: domain.SeverityError,
		Title:    "High Tool Error Rate",
		Detail: fmt.Sprintf("%.0f%% of last %d tool calls failed (%d/%d).",
			rate, highErrorRateSample, errors, highErrorRateSample),
		Fingerprint: Fingerprint(r.ID()),
		TS:          domain.Now(),
		Events:      recent,
	}
}

package rules

import (
	"strings"
	"testing"

	"github.com/tjfontaine/openalerts/internal/domain"
)

// fakeContext feeds a rule a fixed window, as the evaluator would after
// time filtering.
type fakeContext struct {
	events     []domain.Event
	thresholds map[string]float64
}

func (c *fakeContext) Window(ruleID string, windowSeconds float64) []domain.Event {
	return c.events
}

func (c *fakeContext) Threshold(ruleID string, def float64) float64 {
	if v, ok := c.thresholds[ruleID]; ok {
		return v
	}
	return def
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("tool-errors", "bash")
	b := Fingerprint("tool-errors", "bash")
	if a != b {
		t.Errorf("same parts should produce same fingerprint: %s vs %s", a, b)
	}
	if len(a) != 12 {
		t.Errorf("fingerprint length = %d, want 12", len(a))
	}
	if c := Fingerprint("tool-errors", "curl"); c == a {
		t.Errorf("different parts should produce different fingerprints")
	}
}

func TestModelErrorsFires(t *testing.T) {
	ev := domain.NewEvent(domain.EventModelError)
	ev.Error = "rate limited"
	ctx := &fakeContext{events: []domain.Event{ev}}

	alert := ModelErrorsRule{}.Evaluate(ev, ctx)
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if alert.Title != "LLM API Errors Detected" {
		t.Errorf("title = %q", alert.Title)
	}
	if alert.Severity != domain.SeverityError {
		t.Errorf("severity = %s", alert.Severity)
	}
	if !strings.Contains(alert.Detail, "rate limited") {
		t.Errorf("detail should carry the latest error, got %q", alert.Detail)
	}
	if alert.Fingerprint != Fingerprint("model-errors") {
		t.Errorf("fingerprint mismatch")
	}
}

func TestModelErrorsIgnoresOtherEvents(t *testing.T) {
	ev := domain.NewEvent(domain.EventToolError)
	ctx := &fakeContext{events: []domain.Event{ev}}
	if (ModelErrorsRule{}).Evaluate(ev, ctx) != nil {
		t.Error("non-model-error event should not fire")
	}
}

func TestModelErrorsBelowThreshold(t *testing.T) {
	ev := domain.NewEvent(domain.EventModelError)
	ctx := &fakeContext{
		events:     []domain.Event{ev},
		thresholds: map[string]float64{"model-errors": 3},
	}
	if (ModelErrorsRule{}).Evaluate(ev, ctx) != nil {
		t.Error("one error should not reach a threshold of 3")
	}
}

func TestToolErrorsFingerprintPerTool(t *testing.T) {
	ev := domain.NewEvent(domain.EventToolError)
	ev.ToolName = "bash"
	ctx := &fakeContext{events: []domain.Event{ev}}

	alert := ToolErrorsRule{}.Evaluate(ev, ctx)
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if alert.Severity != domain.SeverityWarn {
		t.Errorf("severity = %s", alert.Severity)
	}
	if alert.Fingerprint != Fingerprint("tool-errors", "bash") {
		t.Errorf("fingerprint should include the tool name")
	}
}

func TestAgentStuckImmediate(t *testing.T) {
	ev := domain.NewEvent(domain.EventAgentStuck)
	ev.AgentName = "researcher"

	alert := AgentStuckRule{}.Evaluate(ev, &fakeContext{})
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if alert.Title != "Agent Stuck" {
		t.Errorf("title = %q", alert.Title)
	}
	if !strings.Contains(alert.Detail, "researcher") {
		t.Errorf("detail should name the agent, got %q", alert.Detail)
	}
}

func TestTokenLimitImmediate(t *testing.T) {
	ev := domain.NewEvent(domain.EventTokenLimit)
	ev.AgentName = "coder"

	alert := TokenLimitRule{}.Evaluate(ev, &fakeContext{})
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if alert.Severity != domain.SeverityError {
		t.Errorf("severity = %s", alert.Severity)
	}
	if alert.Fingerprint != Fingerprint("token-limit", "coder") {
		t.Errorf("fingerprint mismatch")
	}
}

func TestStepLimitWarning(t *testing.T) {
	tests := []struct {
		name      string
		step, max int
		fires     bool
	}{
		{"below threshold", 7, 10, false},
		{"at threshold", 8, 10, true},
		{"above threshold", 9, 10, true},
		{"final step", 10, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := domain.NewEvent(domain.EventAgentStep)
			ev.AgentName = "planner"
			ev.StepNumber = domain.Int(tt.step)
			ev.MaxSteps = domain.Int(tt.max)

			alert := StepLimitWarningRule{}.Evaluate(ev, &fakeContext{})
			if (alert != nil) != tt.fires {
				t.Errorf("step %d/%d: fired=%v, want %v", tt.step, tt.max, alert != nil, tt.fires)
			}
		})
	}
}

func TestStepLimitWarningMissingFields(t *testing.T) {
	ev := domain.NewEvent(domain.EventAgentStep)
	ev.StepNumber = domain.Int(9)
	if (StepLimitWarningRule{}).Evaluate(ev, &fakeContext{}) != nil {
		t.Error("missing max_steps should not fire")
	}

	ev.MaxSteps = domain.Int(0)
	if (StepLimitWarningRule{}).Evaluate(ev, &fakeContext{}) != nil {
		t.Error("zero max_steps should not fire")
	}
}

func toolWindow(errorCount, total int) []domain.Event {
	events := make([]domain.Event, 0, total)
	for i := 0; i < total; i++ {
		if i < errorCount {
			events = append(events, domain.NewEvent(domain.EventToolError))
		} else {
			events = append(events, domain.NewEvent(domain.EventToolCall))
		}
	}
	return events
}

func TestHighErrorRate(t *testing.T) {
	tests := []struct {
		name   string
		window []domain.Event
		fires  bool
	}{
		{"too few samples", toolWindow(19, 19), false},
		{"exactly half", toolWindow(10, 20), false},
		{"over half", toolWindow(11, 20), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := domain.NewEvent(domain.EventToolCall)
			ctx := &fakeContext{events: tt.window}
			alert := HighErrorRateRule{}.Evaluate(trigger, ctx)
			if (alert != nil) != tt.fires {
				t.Errorf("fired=%v, want %v", alert != nil, tt.fires)
			}
		})
	}
}

func TestHighErrorRateUsesMostRecentSample(t *testing.T) {
	// 30 events: 15 old errors followed by 15 clean calls. The last 20 hold
	// only 5 errors, so the rule must stay quiet.
	window := append(toolWindow(15, 15), toolWindow(0, 15)...)
	trigger := domain.NewEvent(domain.EventToolCall)
	if alert := (HighErrorRateRule{}).Evaluate(trigger, &fakeContext{events: window}); alert != nil {
		t.Errorf("old errors outside the sample should not fire: %q", alert.Detail)
	}
}

func TestBuiltinOrderAndDefaults(t *testing.T) {
	ruleSet := Builtin()
	wantIDs := []string{
		"model-errors", "tool-errors", "agent-stuck",
		"token-limit", "step-limit-warning", "high-error-rate",
	}
	if len(ruleSet) != len(wantIDs) {
		t.Fatalf("expected %d rules, got %d", len(wantIDs), len(ruleSet))
	}
	for i, r := range ruleSet {
		if r.ID() != wantIDs[i] {
			t.Errorf("rule %d = %s, want %s", i, r.ID(), wantIDs[i])
		}
		if r.DefaultCooldownSeconds() != 900 {
			t.Errorf("%s default cooldown = %d", r.ID(), r.DefaultCooldownSeconds())
		}
	}
}

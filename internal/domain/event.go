// Package domain defines the core event and alert types shared by every
// OpenAlerts component. Events are immutable once created; they flow from
// instrumentation adapters through the bus, the rule evaluator, and the
// persistent log.
package domain

import "time"

// EventType identifies the kind of lifecycle event emitted by a monitored
// agent process. The set is fixed; adapters producing anything else should
// use EventCustom with details in Meta.
type EventType string

const (
	// Model events
	EventModelCall       EventType = "model.call"
	EventModelError      EventType = "model.error"
	EventModelTokenUsage EventType = "model.token_usage"
	// Tool events
	EventToolCall  EventType = "tool.call"
	EventToolError EventType = "tool.error"
	// Agent lifecycle events
	EventAgentStart EventType = "agent.start"
	EventAgentEnd   EventType = "agent.end"
	EventAgentError EventType = "agent.error"
	EventAgentStuck EventType = "agent.stuck"
	EventAgentStep  EventType = "agent.step"
	// Limit events
	EventTokenLimit EventType = "token.limit_exceeded"
	EventStepLimit  EventType = "step.limit_warning"
	// Escape hatch
	EventCustom EventType = "custom"
)

// Severity grades events and alerts.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Event is an immutable record of something that happened in a monitored
// agent process. TS is seconds since the Unix epoch with sub-second
// precision, matching the persisted wire format. Optional fields are
// omitted from the wire when unset; StepNumber and MaxSteps are pointers so
// that step zero is distinguishable from absent.
type Event struct {
	Type       EventType      `json:"type"`
	TS         float64        `json:"ts"`
	Severity   Severity       `json:"severity,omitempty"`
	AgentName  string         `json:"agent_name,omitempty"`
	AgentClass string         `json:"agent_class,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	DurationMS float64        `json:"duration_ms,omitempty"`
	TokenCount int            `json:"token_count,omitempty"`
	Error      string         `json:"error,omitempty"`
	Outcome    string         `json:"outcome,omitempty"`
	StepNumber *int           `json:"step_number,omitempty"`
	MaxSteps   *int           `json:"max_steps,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// NewEvent returns an Event of the given type stamped with the current time
// and the default severity.
func NewEvent(t EventType) Event {
	return Event{Type: t, TS: Now(), Severity: SeverityInfo}
}

// Now returns the current wall-clock time as epoch seconds with float
// precision, the timestamp representation used throughout the log format.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// Int returns a pointer to v, for populating optional step fields.
func Int(v int) *int { return &v }

package evaluator

import (
	"github.com/tjfontaine/openalerts/internal/domain"
	"github.com/tjfontaine/openalerts/internal/ring"
)

const (
	// windowCapacity bounds each rule's event window.
	windowCapacity = 100

	// cooldownCapacity bounds the fingerprint cooldown map.
	cooldownCapacity = 50
)

// State holds the mutable evaluation state shared across events: per-rule
// event windows, fingerprint cooldowns, the hourly rate-limit bucket, and
// running counters. Access is serialized by the engine's ingest lock.
type State struct {
	Windows        map[string]*ring.Buffer[domain.Event]
	Cooldowns      *BoundedMap
	AlertsThisHour int
	HourStart      float64
	StartupTime    float64
	Stats          map[string]int
	FiredCounts    map[string]int
}

// NewState creates evaluation state with empty windows and counters.
func NewState() *State {
	now := domain.Now()
	return &State{
		Windows:     make(map[string]*ring.Buffer[domain.Event]),
		Cooldowns:   NewBoundedMap(cooldownCapacity),
		HourStart:   now,
		StartupTime: now,
		FiredCounts: make(map[string]int),
		Stats: map[string]int{
			"events_processed": 0,
			"llm_calls":        0,
			"llm_errors":       0,
			"tool_calls":       0,
			"tool_errors":      0,
			"agent_starts":     0,
			"agent_errors":     0,
			"agent_steps":      0,
			"tokens_used":      0,
		},
	}
}

// Window returns the event window for the rule, creating it on first use.
func (s *State) Window(ruleID string) *ring.Buffer[domain.Event] {
	w, ok := s.Windows[ruleID]
	if !ok {
		w = ring.New[domain.Event](windowCapacity)
		s.Windows[ruleID] = w
	}
	return w
}

// CountEvent updates the running counters for an ingested event.
func (s *State) CountEvent(event domain.Event) {
	s.Stats["events_processed"]++
	switch event.Type {
	case domain.EventModelCall:
		s.Stats["llm_calls"]++
	case domain.EventModelError:
		s.Stats["llm_errors"]++
	case domain.EventToolCall:
		s.Stats["tool_calls"]++
	case domain.EventToolError:
		s.Stats["tool_errors"]++
	case domain.EventAgentStart:
		s.Stats["agent_starts"]++
	case domain.EventAgentError:
		s.Stats["agent_errors"]++
	case domain.EventAgentStep:
		s.Stats["agent_steps"]++
	case domain.EventModelTokenUsage:
		s.Stats["tokens_used"] += event.TokenCount
	}
}

package domain

// Alert is the result of a rule match. Alerts are the unit of cooldown
// accounting, hourly rate limiting, persistence, and delivery.
//
// Fingerprint is a deterministic short identifier derived from the rule id
// plus its discriminating context (tool name, agent name); two alerts for
// the same logical condition always share a fingerprint and therefore a
// cooldown slot.
type Alert struct {
	RuleID      string   `json:"rule_id"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Detail      string   `json:"detail"`
	Fingerprint string   `json:"fingerprint"`
	TS          float64  `json:"ts"`
	Events      []Event  `json:"events,omitempty"`
}

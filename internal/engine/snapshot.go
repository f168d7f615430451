package engine

import (
	"time"

	"github.com/tjfontaine/openalerts/internal/domain"
)

// Snapshot is the point-in-time engine state served by the dashboard's
// state endpoint.
type Snapshot struct {
	UptimeMS     int64              `json:"uptime_ms"`
	StartedAt    int64              `json:"started_at"`
	Stats        map[string]int     `json:"stats"`
	BusListeners int                `json:"bus_listeners"`
	RecentAlerts []SnapshotAlert    `json:"recent_alerts"`
	Rules        []SnapshotRule     `json:"rules"`
	Cooldowns    map[string]float64 `json:"cooldowns"`
}

// SnapshotAlert is the trimmed alert form shown in snapshots.
type SnapshotAlert struct {
	RuleID   string          `json:"rule_id"`
	Severity domain.Severity `json:"severity"`
	Title    string          `json:"title"`
	Detail   string          `json:"detail"`
	TS       float64         `json:"ts"`
}

// SnapshotRule reports a rule's id, whether it fired recently, and its
// lifetime fired count.
type SnapshotRule struct {
	ID         string   `json:"id"`
	Status     string   `json:"status"`
	LastFired  *float64 `json:"last_fired"`
	FiredCount int      `json:"fired_count"`
}

// Snapshot captures current stats, recent alerts, rule status, and cooldown
// state.
func (e *Engine) Snapshot() Snapshot {
	e.procMu.Lock()
	stats := make(map[string]int, len(e.state.Stats))
	for k, v := range e.state.Stats {
		stats[k] = v
	}
	cooldowns := e.state.Cooldowns.Items()
	firedCounts := make(map[string]int, len(e.state.FiredCounts))
	for k, v := range e.state.FiredCounts {
		firedCounts[k] = v
	}
	e.procMu.Unlock()

	// Map each rule to its most recent surviving alert.
	lastFired := make(map[string]float64)
	for _, a := range e.recentAlerts.All() {
		if prev, ok := lastFired[a.RuleID]; !ok || a.TS > prev {
			lastFired[a.RuleID] = a.TS
		}
	}

	now := domain.Now()
	ruleStatus := make([]SnapshotRule, 0, len(e.rules))
	for _, r := range e.rules {
		sr := SnapshotRule{ID: r.ID(), Status: "ok", FiredCount: firedCounts[r.ID()]}
		if ts, ok := lastFired[r.ID()]; ok {
			t := ts
			sr.LastFired = &t
			if now-ts < firedRecency {
				sr.Status = "fired"
			}
		}
		ruleStatus = append(ruleStatus, sr)
	}

	alerts := e.recentAlerts.All()
	snapAlerts := make([]SnapshotAlert, 0, len(alerts))
	for _, a := range alerts {
		snapAlerts = append(snapAlerts, SnapshotAlert{
			RuleID:   a.RuleID,
			Severity: a.Severity,
			Title:    a.Title,
			Detail:   a.Detail,
			TS:       a.TS,
		})
	}

	e.lifeMu.Lock()
	startedAt := e.startedAt
	e.lifeMu.Unlock()

	var uptimeMS, startedMS int64
	if !startedAt.IsZero() {
		uptimeMS = time.Since(startedAt).Milliseconds()
		startedMS = startedAt.UnixMilli()
	}
	return Snapshot{
		UptimeMS:     uptimeMS,
		StartedAt:    startedMS,
		Stats:        stats,
		BusListeners: e.bus.Size(),
		RecentAlerts: snapAlerts,
		Rules:        ruleStatus,
		Cooldowns:    cooldowns,
	}
}

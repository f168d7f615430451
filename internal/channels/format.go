package channels

import (
	"fmt"
	"time"

	"github.com/tjfontaine/openalerts/internal/domain"
)

// SeverityEmoji maps an alert severity to its display emoji.
func SeverityEmoji(s domain.Severity) string {
	switch s {
	case domain.SeverityWarn:
		return "⚠️"
	case domain.SeverityError:
		return "🚨"
	case domain.SeverityCritical:
		return "🔥"
	default:
		return "ℹ️"
	}
}

// SeverityColor maps an alert severity to its hex display color.
func SeverityColor(s domain.Severity) string {
	switch s {
	case domain.SeverityWarn:
		return "#ffcc00"
	case domain.SeverityError:
		return "#ff4444"
	case domain.SeverityCritical:
		return "#cc0000"
	default:
		return "#36a64f"
	}
}

// severityColorInt maps a severity to Discord's integer embed color.
func severityColorInt(s domain.Severity) int {
	switch s {
	case domain.SeverityWarn:
		return 0xFFCC00
	case domain.SeverityError:
		return 0xFF4444
	case domain.SeverityCritical:
		return 0xCC0000
	default:
		return 0x36A64F
	}
}

// FormatText renders the alert as a single plain-text line.
func FormatText(alert *domain.Alert) string {
	return fmt.Sprintf("%s [%s] %s: %s",
		SeverityEmoji(alert.Severity), alert.Severity, alert.Title, alert.Detail)
}

func alertTimestamp(alert *domain.Alert) string {
	sec := int64(alert.TS)
	nsec := int64((alert.TS - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC().Format(time.RFC3339)
}

// slackPayload renders the alert as a Slack attachment message.
func slackPayload(alert *domain.Alert) map[string]any {
	return map[string]any{
		"text": fmt.Sprintf("%s *%s*", SeverityEmoji(alert.Severity), alert.Title),
		"attachments": []map[string]any{
			{
				"color": SeverityColor(alert.Severity),
				"text":  alert.Detail,
				"fields": []map[string]any{
					{"title": "Rule", "value": alert.RuleID, "short": true},
					{"title": "Severity", "value": string(alert.Severity), "short": true},
				},
				"ts": int64(alert.TS),
			},
		},
	}
}

// discordPayload renders the alert as a Discord embed message.
func discordPayload(alert *domain.Alert) map[string]any {
	return map[string]any{
		"embeds": []map[string]any{
			{
				"title":       fmt.Sprintf("%s %s", SeverityEmoji(alert.Severity), alert.Title),
				"description": alert.Detail,
				"color":       severityColorInt(alert.Severity),
				"fields": []map[string]any{
					{"name": "Rule", "value": alert.RuleID, "inline": true},
					{"name": "Severity", "value": string(alert.Severity), "inline": true},
				},
				"timestamp": alertTimestamp(alert),
			},
		},
	}
}

// webhookPayload renders the alert for generic webhook receivers: the raw
// alert fields plus a pre-rendered text line.
func webhookPayload(alert *domain.Alert) map[string]any {
	return map[string]any{
		"rule_id":     alert.RuleID,
		"severity":    string(alert.Severity),
		"title":       alert.Title,
		"detail":      alert.Detail,
		"fingerprint": alert.Fingerprint,
		"ts":          alert.TS,
		"text":        FormatText(alert),
	}
}

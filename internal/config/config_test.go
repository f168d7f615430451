package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openalerts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CooldownSeconds != 900 {
		t.Errorf("cooldown = %d", cfg.CooldownSeconds)
	}
	if cfg.MaxAlertsPerHour != 5 {
		t.Errorf("max alerts = %d", cfg.MaxAlertsPerHour)
	}
	if !cfg.Dashboard || cfg.DashboardPort != 9464 {
		t.Errorf("dashboard defaults wrong: %v %d", cfg.Dashboard, cfg.DashboardPort)
	}
	if !cfg.Persist {
		t.Errorf("persist should default on")
	}
}

func TestMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	if cfg.CooldownSeconds != 900 {
		t.Errorf("defaults should apply, cooldown = %d", cfg.CooldownSeconds)
	}
}

func TestYAMLFile(t *testing.T) {
	path := writeConfig(t, `
cooldown_seconds: 300
max_alerts_per_hour: 10
quiet: true
channels:
  - type: slack
    webhook_url: https://hooks.slack.com/services/T/B/X
rules:
  model-errors:
    threshold: 5
    cooldown_seconds: 120
  tool-errors:
    enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CooldownSeconds != 300 || cfg.MaxAlertsPerHour != 10 || !cfg.Quiet {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if len(cfg.Channels) != 1 || cfg.Channels[0].Type != "slack" {
		t.Fatalf("channels = %+v", cfg.Channels)
	}
	if cfg.RuleThreshold("model-errors", 1) != 5 {
		t.Errorf("threshold override not applied")
	}
	if cfg.RuleCooldown("model-errors", 900) != 120 {
		t.Errorf("cooldown override not applied")
	}
	if cfg.RuleEnabled("tool-errors") {
		t.Errorf("tool-errors should be disabled")
	}
	if !cfg.RuleEnabled("model-errors") {
		t.Errorf("rules without an enabled override default to on")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "cooldown_seconds: 300\n")
	t.Setenv("OPENALERTS_COOLDOWN_SECONDS", "60")
	t.Setenv("OPENALERTS_QUIET", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CooldownSeconds != 60 {
		t.Errorf("env should beat file, cooldown = %d", cfg.CooldownSeconds)
	}
	if !cfg.Quiet {
		t.Errorf("OPENALERTS_QUIET not applied")
	}
}

func TestEnvChannelInjection(t *testing.T) {
	t.Setenv("OPENALERTS_SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/T/B/Y")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Channels) != 1 {
		t.Fatalf("expected injected slack channel, got %+v", cfg.Channels)
	}
	if cfg.Channels[0].Type != "slack" || cfg.Channels[0].WebhookURL == "" {
		t.Errorf("channel = %+v", cfg.Channels[0])
	}
}

func TestEnvChannelDoesNotDuplicate(t *testing.T) {
	path := writeConfig(t, `
channels:
  - type: slack
    webhook_url: https://hooks.slack.com/explicit
`)
	t.Setenv("OPENALERTS_SLACK_WEBHOOK_URL", "https://hooks.slack.com/from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Channels) != 1 {
		t.Fatalf("explicit channel should win, got %d channels", len(cfg.Channels))
	}
	if cfg.Channels[0].WebhookURL != "https://hooks.slack.com/explicit" {
		t.Errorf("url = %s", cfg.Channels[0].WebhookURL)
	}
}

func TestWebhookURLEnvSubstitution(t *testing.T) {
	path := writeConfig(t, `
channels:
  - type: webhook
    webhook_url: https://example.com/hook?token=${HOOK_TOKEN}
`)
	t.Setenv("HOOK_TOKEN", "s3cret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Channels[0].WebhookURL; got != "https://example.com/hook?token=s3cret" {
		t.Errorf("url = %s", got)
	}
}

func TestRuleCooldownFallbackChain(t *testing.T) {
	cfg := Default()
	if cfg.RuleCooldown("model-errors", 450) != 900 {
		t.Errorf("global default should beat rule default")
	}
	cfg.CooldownSeconds = 0
	if cfg.RuleCooldown("model-errors", 450) != 450 {
		t.Errorf("rule default should apply when global unset")
	}
}

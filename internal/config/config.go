// Package config loads engine configuration from an optional YAML file
// layered with OPENALERTS_-prefixed environment variables. Environment
// values override file values; defaults fill whatever remains unset.
package config

import (
	"errors"
	"os"
	"regexp"
	"strings"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	koanffile "github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the immutable per-engine settings. Loaded once at engine
// construction.
type Config struct {
	Channels         []ChannelConfig         `koanf:"channels"`
	Rules            map[string]RuleOverride `koanf:"rules"`
	CooldownSeconds  int                     `koanf:"cooldown_seconds"`
	MaxAlertsPerHour int                     `koanf:"max_alerts_per_hour"`
	Quiet            bool                    `koanf:"quiet"`
	StateDir         string                  `koanf:"state_dir"`
	LogLevel         string                  `koanf:"log_level"`
	MaxLogSizeKB     int                     `koanf:"max_log_size_kb"`
	MaxLogAgeDays    int                     `koanf:"max_log_age_days"`
	Dashboard        bool                    `koanf:"dashboard"`
	DashboardPort    int                     `koanf:"dashboard_port"`
	Persist          bool                    `koanf:"persist"`
}

// RuleOverride adjusts a single rule. Nil fields mean "use the default".
type RuleOverride struct {
	Enabled         *bool    `koanf:"enabled"`
	Threshold       *float64 `koanf:"threshold"`
	CooldownSeconds *int     `koanf:"cooldown_seconds"`
}

// ChannelConfig describes one delivery channel.
type ChannelConfig struct {
	Type       string            `koanf:"type"`
	WebhookURL string            `koanf:"webhook_url"`
	Name       string            `koanf:"name"`
	Headers    map[string]string `koanf:"headers"`
}

// Environment variables that inject a delivery channel when no channel of
// that type is configured explicitly.
var envChannelVars = map[string]string{
	"OPENALERTS_SLACK_WEBHOOK_URL":   "slack",
	"OPENALERTS_DISCORD_WEBHOOK_URL": "discord",
	"OPENALERTS_WEBHOOK_URL":         "webhook",
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Rules:            make(map[string]RuleOverride),
		CooldownSeconds:  900,
		MaxAlertsPerHour: 5,
		LogLevel:         "info",
		MaxLogSizeKB:     512,
		MaxLogAgeDays:    7,
		Dashboard:        true,
		DashboardPort:    9464,
		Persist:          true,
	}
}

// Load reads configuration from the given YAML file (a missing file is
// fine) and overlays OPENALERTS_-prefixed environment variables. Double
// underscores in variable names map to key nesting, so
// OPENALERTS_MAX_ALERTS_PER_HOUR sets max_alerts_per_hour.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(koanffile.Provider(path), koanfyaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider("OPENALERTS_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "OPENALERTS_")), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	applyDefaults(k)

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	if cfg.Rules == nil {
		cfg.Rules = make(map[string]RuleOverride)
	}

	// Webhook URLs may reference env vars as ${VAR_NAME}.
	for i := range cfg.Channels {
		cfg.Channels[i].WebhookURL = substituteEnvVars(cfg.Channels[i].WebhookURL)
	}

	applyEnvChannels(cfg)
	return cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"cooldown_seconds":    900,
		"max_alerts_per_hour": 5,
		"log_level":           "info",
		"max_log_size_kb":     512,
		"max_log_age_days":    7,
		"dashboard":           true,
		"dashboard_port":      9464,
		"persist":             true,
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
}

// applyEnvChannels injects channel definitions from the dedicated webhook
// env vars when no channel of that type was configured explicitly. The
// channel type is inferred from which variable is set.
func applyEnvChannels(cfg *Config) {
	existing := make(map[string]bool, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		existing[ch.Type] = true
	}
	for envVar, channelType := range envChannelVars {
		url := os.Getenv(envVar)
		if url != "" && !existing[channelType] {
			cfg.Channels = append(cfg.Channels, ChannelConfig{
				Type:       channelType,
				WebhookURL: url,
			})
		}
	}
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// RuleEnabled reports whether the rule is enabled, honoring any override.
func (c *Config) RuleEnabled(ruleID string) bool {
	if o, ok := c.Rules[ruleID]; ok && o.Enabled != nil {
		return *o.Enabled
	}
	return true
}

// RuleThreshold returns the override threshold for the rule, or def when no
// override is set.
func (c *Config) RuleThreshold(ruleID string, def float64) float64 {
	if o, ok := c.Rules[ruleID]; ok && o.Threshold != nil {
		return *o.Threshold
	}
	return def
}

// RuleCooldown resolves the effective cooldown for a rule: per-rule
// override, then the global default, then the rule's own default.
func (c *Config) RuleCooldown(ruleID string, ruleDefault int) int {
	if o, ok := c.Rules[ruleID]; ok && o.CooldownSeconds != nil {
		return *o.CooldownSeconds
	}
	if c.CooldownSeconds > 0 {
		return c.CooldownSeconds
	}
	return ruleDefault
}

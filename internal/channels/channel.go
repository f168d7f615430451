// Package channels delivers alerts to external sinks: generic webhooks,
// Slack, and Discord. Each channel posts a JSON payload shaped for its
// receiver and treats any non-2xx response as a delivery error.
package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tjfontaine/openalerts/internal/config"
	"github.com/tjfontaine/openalerts/internal/domain"
)

// sendTimeout bounds a single delivery attempt.
const sendTimeout = 5 * time.Second

// Channel delivers a single alert to one external sink.
type Channel interface {
	// Name identifies the channel in logs.
	Name() string

	// Send delivers the alert. A non-2xx response or transport failure
	// returns an error; the dispatcher logs it and keeps going.
	Send(ctx context.Context, alert *domain.Alert) error
}

// FromConfig builds a channel from its configuration.
func FromConfig(cc config.ChannelConfig) (Channel, error) {
	if cc.WebhookURL == "" {
		return nil, fmt.Errorf("channel %q: webhook_url is required", cc.Type)
	}
	switch cc.Type {
	case "webhook":
		return NewWebhook(cc.Name, cc.WebhookURL, cc.Headers), nil
	case "slack":
		return NewSlack(cc.Name, cc.WebhookURL), nil
	case "discord":
		return NewDiscord(cc.Name, cc.WebhookURL), nil
	default:
		return nil, fmt.Errorf("unknown channel type %q", cc.Type)
	}
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

package channels

import (
	"context"
	"net/http"

	"github.com/tjfontaine/openalerts/internal/domain"
)

// Webhook posts alerts as flat JSON to an arbitrary HTTP endpoint, with
// optional extra headers for authentication.
type Webhook struct {
	name    string
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhook creates a generic webhook channel.
func NewWebhook(name, url string, headers map[string]string) *Webhook {
	if name == "" {
		name = "webhook"
	}
	return &Webhook{
		name:    name,
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: sendTimeout},
	}
}

func (w *Webhook) Name() string { return w.name }

func (w *Webhook) Send(ctx context.Context, alert *domain.Alert) error {
	return postJSON(ctx, w.client, w.url, w.headers, webhookPayload(alert))
}

// Slack posts alerts to a Slack incoming-webhook URL as an attachment
// message.
type Slack struct {
	name   string
	url    string
	client *http.Client
}

// NewSlack creates a Slack channel.
func NewSlack(name, url string) *Slack {
	if name == "" {
		name = "slack"
	}
	return &Slack{name: name, url: url, client: &http.Client{Timeout: sendTimeout}}
}

func (s *Slack) Name() string { return s.name }

func (s *Slack) Send(ctx context.Context, alert *domain.Alert) error {
	return postJSON(ctx, s.client, s.url, nil, slackPayload(alert))
}

// Discord posts alerts to a Discord webhook URL as an embed message.
type Discord struct {
	name   string
	url    string
	client *http.Client
}

// NewDiscord creates a Discord channel.
func NewDiscord(name, url string) *Discord {
	if name == "" {
		name = "discord"
	}
	return &Discord{name: name, url: url, client: &http.Client{Timeout: sendTimeout}}
}

func (d *Discord) Name() string { return d.name }

func (d *Discord) Send(ctx context.Context, alert *domain.Alert) error {
	return postJSON(ctx, d.client, d.url, nil, discordPayload(alert))
}

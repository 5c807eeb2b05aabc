package notify

import (
	"context"
	"net/http"
)

// discordLimit is the maximum message length Discord accepts.
const discordLimit = 2000

// DiscordSender posts alerts to a Discord channel webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{webhookURL: webhookURL, client: newHTTPClient()}
}

// Send posts the title in bold followed by the body.
func (d *DiscordSender) Send(ctx context.Context, title, body string) error {
	content := "**" + title + "**\n" + body
	if len(content) > discordLimit {
		content = content[:discordLimit-3] + "..."
	}
	return postJSON(ctx, d.client, d.webhookURL, map[string]string{"content": content})
}

// Name returns "discord".
func (d *DiscordSender) Name() string { return "discord" }

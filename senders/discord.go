package senders

import (
	"context"
	"errors"
	"time"

	"github.com/carlmjohnson/requests"
)

// discordSender posts restock alerts to a Discord webhook, mentioning the
// recipient so they are pinged in the channel. Recipients are Discord user
// ids, matching the opaque user ids subscriptions are keyed on.
type discordSender struct {
	base
}

type discordWebhookPayload struct {
	Content string `json:"content"`
}

func (d *discordSender) SendRestockAlert(ctx context.Context, recipient string, alert RestockAlert) (string, error) {
	if d.cfg.Discord.WebhookURL == "" {
		return "", errors.New("discord webhook URL is not configured")
	}

	timeout := time.Duration(d.cfg.Discord.TimeoutSecs) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	format := &restockDiscordFormat{recipient, alert}
	err := requests.URL(d.cfg.Discord.WebhookURL).
		Transport(d.transport).
		BodyJSON(&discordWebhookPayload{Content: format.Content()}).
		Fetch(ctx)
	if err != nil {
		return "", err
	}
	return recipient, nil
}

// Package slack posts notifications to a Slack incoming webhook.
package slack

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"github.com/zulandar/switchyard/internal/notify"
)

// Webhook implements notify.Notifier for a Slack incoming webhook URL.
type Webhook struct {
	url  string
	post func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

// NewWebhook returns a notifier posting to url.
func NewWebhook(url string) *Webhook {
	return &Webhook{url: url, post: slack.PostWebhookContext}
}

// Notify posts msg as a single attachment.
func (w *Webhook) Notify(ctx context.Context, msg notify.Message) error {
	if w.url == "" {
		return fmt.Errorf("slack: webhook url is required")
	}
	if err := w.post(ctx, w.url, buildMessage(msg)); err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	return nil
}

func buildMessage(msg notify.Message) *slack.WebhookMessage {
	att := slack.Attachment{
		Color:    msg.Color(),
		Title:    msg.Title,
		Text:     msg.Body,
		Fallback: msg.Title,
	}
	for _, f := range msg.Fields {
		att.Fields = append(att.Fields, slack.AttachmentField{Title: f.Name, Value: f.Value, Short: len(f.Value) < 40})
	}
	return &slack.WebhookMessage{
		Text:        msg.Title,
		Attachments: []slack.Attachment{att},
	}
}

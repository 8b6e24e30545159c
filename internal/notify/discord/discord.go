// Package discord posts notifications through a Discord webhook.
package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/switchyard/internal/notify"
)

// executor abstracts the discordgo.Session method we use, enabling test mocks.
type executor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Webhook implements notify.Notifier for a Discord webhook.
type Webhook struct {
	sess  executor
	id    string
	token string
}

// NewWebhook returns a notifier executing the webhook id with token.
func NewWebhook(id, token string) (*Webhook, error) {
	if id == "" || token == "" {
		return nil, fmt.Errorf("discord: webhook id and token are required")
	}
	// Webhook execution is authorized by the token in the URL, not the session.
	s, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return &Webhook{sess: s, id: id, token: token}, nil
}

// Notify sends msg as one embed.
func (w *Webhook) Notify(ctx context.Context, msg notify.Message) error {
	params := &discordgo.WebhookParams{
		Username: "switchyard",
		Embeds:   []*discordgo.MessageEmbed{buildEmbed(msg)},
	}
	if _, err := w.sess.WebhookExecute(w.id, w.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: execute webhook: %w", err)
	}
	return nil
}

func buildEmbed(msg notify.Message) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Body,
		Color:       colorInt(msg.Color()),
	}
	for _, f := range msg.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: len(f.Value) < 40,
		})
	}
	return embed
}

// colorInt converts "#rrggbb" to the integer Discord expects.
func colorInt(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

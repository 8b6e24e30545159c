package discord

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/switchyard/internal/notify"
)

type mockExecutor struct {
	id, token string
	params    *discordgo.WebhookParams
	err       error
}

func (m *mockExecutor) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.id, m.token, m.params = webhookID, token, data
	return nil, m.err
}

func TestWebhook_SendsEmbed(t *testing.T) {
	mock := &mockExecutor{}
	w := &Webhook{sess: mock, id: "123", token: "tok"}

	msg := notify.Message{
		Title:    "Board changed: Alpha",
		Body:     "2 tasks moved to the default column.",
		Severity: "success",
		Fields:   []notify.Field{{Name: "linear link l1", Value: "rebuilt, 3 states bound"}},
	}
	if err := w.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if mock.id != "123" || mock.token != "tok" {
		t.Errorf("executed %s/%s", mock.id, mock.token)
	}
	if len(mock.params.Embeds) != 1 {
		t.Fatalf("Embeds = %d, want 1", len(mock.params.Embeds))
	}
	e := mock.params.Embeds[0]
	if e.Title != msg.Title || e.Description != msg.Body {
		t.Errorf("embed = %+v", e)
	}
	if e.Color != 0x36a64f {
		t.Errorf("Color = %#x, want %#x", e.Color, 0x36a64f)
	}
	if len(e.Fields) != 1 || !e.Fields[0].Inline {
		t.Errorf("Fields = %+v", e.Fields)
	}
}

func TestWebhook_Error(t *testing.T) {
	w := &Webhook{sess: &mockExecutor{err: errors.New("429")}, id: "1", token: "t"}
	err := w.Notify(context.Background(), notify.Message{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "discord: execute webhook") {
		t.Errorf("err = %v", err)
	}
}

func TestNewWebhook_RequiresCredentials(t *testing.T) {
	if _, err := NewWebhook("", "tok"); err == nil {
		t.Error("expected error without id")
	}
	w, err := NewWebhook("1", "tok")
	if err != nil {
		t.Fatalf("NewWebhook: %v", err)
	}
	if w.id != "1" {
		t.Errorf("id = %q", w.id)
	}
}

func TestColorInt(t *testing.T) {
	if got := colorInt("#e53935"); got != 0xe53935 {
		t.Errorf("colorInt = %#x", got)
	}
	if got := colorInt("nope"); got != 0 {
		t.Errorf("colorInt(nope) = %d, want 0", got)
	}
}

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zulandar/switchyard/internal/integration"
	"github.com/zulandar/switchyard/internal/project"
)

type recorder struct {
	got []Message
	err error
}

func (r *recorder) Notify(_ context.Context, msg Message) error {
	r.got = append(r.got, msg)
	return r.err
}

func TestMulti_AttemptsAllAndJoinsErrors(t *testing.T) {
	ok := &recorder{}
	bad := &recorder{err: errors.New("boom")}
	m := Multi{bad, ok, Nop{}}

	err := m.Notify(context.Background(), Message{Title: "hi"})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v, want boom", err)
	}
	if len(ok.got) != 1 || len(bad.got) != 1 {
		t.Errorf("deliveries ok=%d bad=%d, want 1 each", len(ok.got), len(bad.got))
	}
	if err := (Multi{}).Notify(context.Background(), Message{}); err != nil {
		t.Errorf("empty Multi err = %v", err)
	}
}

func TestMessage_Color(t *testing.T) {
	tests := map[string]string{
		"success": ColorSuccess,
		"warning": ColorWarning,
		"error":   ColorError,
		"info":    ColorInfo,
		"":        ColorInfo,
	}
	for sev, want := range tests {
		if got := (Message{Severity: sev}).Color(); got != want {
			t.Errorf("Color(%q) = %q, want %q", sev, got, want)
		}
	}
}

func TestFromRepair(t *testing.T) {
	if _, ok := FromRepair(&project.RepairResult{Skipped: true}); ok {
		t.Error("skipped pass should not notify")
	}
	if _, ok := FromRepair(&project.RepairResult{Projects: 3}); ok {
		t.Error("no-op pass should not notify")
	}

	msg, ok := FromRepair(&project.RepairResult{
		Projects:         3,
		ConfigsRewritten: 1,
		TasksRemapped:    2,
		Details: []project.ProjectRepair{
			{ProjectID: "p1", ConfigCleared: true, Remapped: make([]project.RemappedTask, 2)},
		},
	})
	if !ok {
		t.Fatal("expected message")
	}
	if !strings.Contains(msg.Body, "1 of 3") {
		t.Errorf("Body = %q", msg.Body)
	}
	last := msg.Fields[len(msg.Fields)-1]
	if last.Name != "p1" || last.Value != "invalid config reset to defaults, 2 tasks remapped" {
		t.Errorf("project field = %+v", last)
	}
}

func TestFromUpdate(t *testing.T) {
	if _, ok := FromUpdate("Board", &project.UpdateReport{}); ok {
		t.Error("name-only update should not notify")
	}

	msg, ok := FromUpdate("Board", &project.UpdateReport{
		ColumnsChanged: true,
		Remapped:       make([]project.RemappedTask, 1),
		Links: []integration.LinkReport{
			{LinkID: "l1", Provider: "linear", Status: integration.LinkRebuilt, Bound: 2, Unmapped: []string{"review"}},
			{LinkID: "l2", Provider: "github", Status: integration.LinkSkippedNoBindings},
		},
	})
	if !ok {
		t.Fatal("expected message")
	}
	if msg.Title != "Board changed: Board" {
		t.Errorf("Title = %q", msg.Title)
	}
	if msg.Severity != "info" {
		t.Errorf("Severity = %q, want info when states are unmapped", msg.Severity)
	}
	if len(msg.Fields) != 2 {
		t.Fatalf("Fields = %+v", msg.Fields)
	}
	if msg.Fields[0].Value != "rebuilt, 2 states bound; no state for review" {
		t.Errorf("link field = %q", msg.Fields[0].Value)
	}
	if !strings.Contains(msg.Fields[1].Value, "no existing bindings") {
		t.Errorf("skip field = %q", msg.Fields[1].Value)
	}
}

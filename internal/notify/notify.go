// Package notify delivers repair and board-change summaries to chat webhooks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/switchyard/internal/integration"
	"github.com/zulandar/switchyard/internal/project"
)

// Color constants for message severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// Message is a platform-neutral notification.
type Message struct {
	Title    string
	Body     string
	Severity string // "info", "warning", "error", "success"
	Fields   []Field
}

// Field is a key-value pair shown with a message.
type Field struct {
	Name  string
	Value string
}

// Color returns the sidebar color for the message severity.
func (m Message) Color() string {
	switch m.Severity {
	case "success":
		return ColorSuccess
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// Notifier delivers messages to one destination.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }

// Multi fans a message out to every notifier. All are attempted; failures
// are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromRepair summarizes a repair pass. ok is false when nothing changed.
func FromRepair(r *project.RepairResult) (msg Message, ok bool) {
	if r == nil || r.Skipped || len(r.Details) == 0 {
		return Message{}, false
	}
	msg = Message{
		Title:    "Board repair",
		Body:     fmt.Sprintf("Repaired %d of %d projects.", len(r.Details), r.Projects),
		Severity: "warning",
		Fields: []Field{
			{Name: "Configs rewritten", Value: fmt.Sprint(r.ConfigsRewritten)},
			{Name: "Tasks remapped", Value: fmt.Sprint(r.TasksRemapped)},
		},
	}
	for _, d := range r.Details {
		var parts []string
		if d.ConfigCleared {
			parts = append(parts, "invalid config reset to defaults")
		} else if d.ConfigRewritten {
			parts = append(parts, "config normalized")
		}
		if len(d.Remapped) > 0 {
			parts = append(parts, fmt.Sprintf("%d tasks remapped", len(d.Remapped)))
		}
		msg.Fields = append(msg.Fields, Field{Name: d.ProjectID, Value: strings.Join(parts, ", ")})
	}
	return msg, true
}

// FromUpdate summarizes the dependent changes of a board edit. ok is false
// when the columns were not touched.
func FromUpdate(projectName string, r *project.UpdateReport) (msg Message, ok bool) {
	if r == nil || !r.ColumnsChanged {
		return Message{}, false
	}
	msg = Message{
		Title:    fmt.Sprintf("Board changed: %s", projectName),
		Body:     fmt.Sprintf("%d tasks moved to the default column.", len(r.Remapped)),
		Severity: "success",
	}
	for _, l := range r.Links {
		var value string
		switch l.Status {
		case integration.LinkRebuilt:
			value = fmt.Sprintf("rebuilt, %d states bound", l.Bound)
		case integration.LinkSkippedNoBindings:
			value = "left as-is, no existing bindings"
		case integration.LinkSkippedNoMatch:
			value = "left as-is, no acceptable external state"
		}
		if len(l.Unmapped) > 0 {
			value += fmt.Sprintf("; no state for %s", strings.Join(l.Unmapped, ", "))
			msg.Severity = "info"
		}
		msg.Fields = append(msg.Fields, Field{Name: fmt.Sprintf("%s link %s", l.Provider, l.LinkID), Value: value})
	}
	return msg, true
}

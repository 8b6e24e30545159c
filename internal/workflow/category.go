// Package workflow defines project board columns and the rules that keep them valid.
//
// Columns are data, not a fixed enum: every project may define its own set.
// Each column declares one of a closed set of lifecycle categories, and the
// category drives terminal/completed semantics and external tracker mapping.
package workflow

import "slices"

// Category is the lifecycle classification every column must declare.
type Category string

const (
	CategoryTriage    Category = "triage"
	CategoryBacklog   Category = "backlog"
	CategoryUnstarted Category = "unstarted"
	CategoryStarted   Category = "started"
	CategoryCompleted Category = "completed"
	CategoryCanceled  Category = "canceled"
)

// categoryOrder is the canonical sort precedence of categories.
var categoryOrder = []Category{
	CategoryTriage,
	CategoryBacklog,
	CategoryUnstarted,
	CategoryStarted,
	CategoryCompleted,
	CategoryCanceled,
}

// Categories returns the ordered list of known categories.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c.Rank() < len(categoryOrder)
}

// Rank returns the sort position of c. Unknown categories rank after all known ones.
func (c Category) Rank() int {
	for i, known := range categoryOrder {
		if c == known {
			return i
		}
	}
	return len(categoryOrder)
}

var (
	doneCategories     = []Category{CategoryCompleted}
	terminalCategories = []Category{CategoryCompleted, CategoryCanceled}
)

// IsDone reports whether c counts as done. Only completed does.
func (c Category) IsDone() bool {
	return slices.Contains(doneCategories, c)
}

// IsTerminal reports whether work in c is finished, successfully or not.
func (c Category) IsTerminal() bool {
	return slices.Contains(terminalCategories, c)
}

// DoneCategories returns a copy of the categories that count as done.
func DoneCategories() []Category {
	return slices.Clone(doneCategories)
}

// TerminalCategories returns a copy of the categories that count as terminal.
func TerminalCategories() []Category {
	return slices.Clone(terminalCategories)
}

// DefaultDoneStatus is the status compared against when a status is not a known column.
const DefaultDoneStatus = "done"

// DefaultColumns returns a fresh copy of the built-in seven column board.
// Callers own the result and may modify it freely.
func DefaultColumns() []Column {
	return []Column{
		{ID: "inbox", Label: "Inbox", Color: "gray", Position: 0, Category: CategoryTriage},
		{ID: "backlog", Label: "Backlog", Color: "slate", Position: 1, Category: CategoryBacklog},
		{ID: "todo", Label: "To Do", Color: "blue", Position: 2, Category: CategoryUnstarted},
		{ID: "in_progress", Label: "In Progress", Color: "amber", Position: 3, Category: CategoryStarted},
		{ID: "review", Label: "Review", Color: "purple", Position: 4, Category: CategoryStarted},
		{ID: "done", Label: "Done", Color: "green", Position: 5, Category: CategoryCompleted},
		{ID: "canceled", Label: "Canceled", Color: "red", Position: 6, Category: CategoryCanceled},
	}
}

package workflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Column is one stage of a project's board.
// The JSON field names are the persisted format and must not change.
type Column struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Color    string   `json:"color" yaml:"color"`
	Position int      `json:"position" yaml:"position"`
	Category Category `json:"category" yaml:"category"`
}

// ErrInvalidColumns is matched by every *ValidationError via errors.Is.
var ErrInvalidColumns = errors.New("workflow: invalid columns")

// ErrorKind identifies which column invariant was violated.
type ErrorKind string

const (
	EmptyColumnSet      ErrorKind = "EmptyColumnSet"
	MissingField        ErrorKind = "MissingField"
	InvalidCategory     ErrorKind = "InvalidCategory"
	DuplicateID         ErrorKind = "DuplicateId"
	NoCompletedColumn   ErrorKind = "NoCompletedColumn"
	NoNonTerminalColumn ErrorKind = "NoNonTerminalColumn"
)

// ValidationError reports the first invariant a column set violates.
type ValidationError struct {
	Kind     ErrorKind
	Field    string // set for MissingField
	ColumnID string // offending column id, when known
	Index    int    // index in canonical order, -1 for set-level violations
	Value    string // offending value for InvalidCategory
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case EmptyColumnSet:
		return "must have at least one column"
	case MissingField:
		if e.ColumnID != "" {
			return fmt.Sprintf("column %q must have a non-empty %s", e.ColumnID, e.Field)
		}
		return fmt.Sprintf("column %d must have a non-empty %s", e.Index, e.Field)
	case InvalidCategory:
		return fmt.Sprintf("column %q has invalid category %q", e.ColumnID, e.Value)
	case DuplicateID:
		return fmt.Sprintf("column id %q is used more than once", e.ColumnID)
	case NoCompletedColumn:
		return "must have at least one completed column"
	case NoNonTerminalColumn:
		return "must have at least one column that is not completed or canceled"
	}
	return "invalid columns"
}

// Is lets errors.Is(err, ErrInvalidColumns) match any validation error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidColumns
}

// ValidateColumns checks input against the column invariants and returns a
// normalized copy: trimmed strings, canonical order, positions 0..n-1.
//
// Canonical order is (category rank, input position, id), so any permutation
// of the same logical set normalizes to identical output. Input positions only
// break ties. The input slice is never modified.
func ValidateColumns(input []Column) ([]Column, error) {
	if len(input) == 0 {
		return nil, &ValidationError{Kind: EmptyColumnSet, Index: -1}
	}

	sorted := make([]Column, len(input))
	copy(sorted, input)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if ra, rb := a.Category.Rank(), b.Category.Rank(); ra != rb {
			return ra < rb
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return strings.TrimSpace(a.ID) < strings.TrimSpace(b.ID)
	})

	out := make([]Column, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	hasCompleted := false
	hasAlive := false

	for i, c := range sorted {
		id := strings.TrimSpace(c.ID)
		label := strings.TrimSpace(c.Label)
		color := strings.TrimSpace(c.Color)

		if id == "" {
			return nil, &ValidationError{Kind: MissingField, Field: "id", Index: i}
		}
		if label == "" {
			return nil, &ValidationError{Kind: MissingField, Field: "label", ColumnID: id, Index: i}
		}
		if color == "" {
			return nil, &ValidationError{Kind: MissingField, Field: "color", ColumnID: id, Index: i}
		}
		if !c.Category.Valid() {
			return nil, &ValidationError{Kind: InvalidCategory, ColumnID: id, Index: i, Value: string(c.Category)}
		}
		if _, dup := seen[id]; dup {
			return nil, &ValidationError{Kind: DuplicateID, ColumnID: id, Index: i}
		}
		seen[id] = struct{}{}

		if c.Category.IsDone() {
			hasCompleted = true
		}
		if !c.Category.IsTerminal() {
			hasAlive = true
		}

		out = append(out, Column{
			ID:       id,
			Label:    label,
			Color:    color,
			Position: i,
			Category: c.Category,
		})
	}

	if !hasCompleted {
		return nil, &ValidationError{Kind: NoCompletedColumn, Index: -1}
	}
	if !hasAlive {
		return nil, &ValidationError{Kind: NoNonTerminalColumn, Index: -1}
	}
	return out, nil
}

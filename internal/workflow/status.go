package workflow

// The helpers below resolve their columns argument first, so callers may pass
// a project's raw config (nil meaning defaults) or an already resolved list.

// ColumnByID returns the column with the given id, or nil.
func ColumnByID(statusID string, columns []Column) *Column {
	for _, c := range ResolveColumns(columns) {
		if c.ID == statusID {
			col := c
			return &col
		}
	}
	return nil
}

// IsTerminalStatus reports whether statusID is a completed or canceled column.
// Unknown statuses are terminal only when they equal "done".
func IsTerminalStatus(statusID string, columns []Column) bool {
	if c := ColumnByID(statusID, columns); c != nil {
		return c.Category.IsTerminal()
	}
	return statusID == DefaultDoneStatus
}

// IsCompletedStatus reports whether statusID is a completed column.
// Unknown statuses are completed only when they equal "done".
func IsCompletedStatus(statusID string, columns []Column) bool {
	if c := ColumnByID(statusID, columns); c != nil {
		return c.Category.IsDone()
	}
	return statusID == DefaultDoneStatus
}

// GetDefaultStatus returns the first non-terminal column id in canonical order.
// New tasks start here and tasks with unknown statuses are moved here.
func GetDefaultStatus(columns []Column) string {
	resolved := ResolveColumns(columns)
	for _, c := range resolved {
		if !c.Category.IsTerminal() {
			return c.ID
		}
	}
	// Unreachable for validated columns; keep the first column as a last resort.
	return resolved[0].ID
}

// GetDoneStatus returns the first completed column id, or "done".
func GetDoneStatus(columns []Column) string {
	for _, c := range ResolveColumns(columns) {
		if c.Category.IsDone() {
			return c.ID
		}
	}
	return DefaultDoneStatus
}

// IsKnownStatus reports whether statusID is one of the resolved column ids.
func IsKnownStatus(statusID string, columns []Column) bool {
	return ColumnByID(statusID, columns) != nil
}

// NormalizeStatusOrDefault returns statusID when known, else the default status.
func NormalizeStatusOrDefault(statusID string, columns []Column) string {
	if IsKnownStatus(statusID, columns) {
		return statusID
	}
	return GetDefaultStatus(columns)
}

// KnownStatusSet returns the set of resolved column ids.
func KnownStatusSet(columns []Column) map[string]struct{} {
	resolved := ResolveColumns(columns)
	set := make(map[string]struct{}, len(resolved))
	for _, c := range resolved {
		set[c.ID] = struct{}{}
	}
	return set
}

// StatusOption is a picker entry for status selectors and board headers.
type StatusOption struct {
	Value    string   `json:"value"`
	Label    string   `json:"label"`
	Color    string   `json:"color"`
	Category Category `json:"category"`
}

// BuildStatusOptions returns one option per resolved column, in board order.
func BuildStatusOptions(columns []Column) []StatusOption {
	resolved := ResolveColumns(columns)
	opts := make([]StatusOption, len(resolved))
	for i, c := range resolved {
		opts[i] = StatusOption{Value: c.ID, Label: c.Label, Color: c.Color, Category: c.Category}
	}
	return opts
}

package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseColumnsConfig turns stored or submitted column data into a validated
// column list. It accepts serialized JSON ([]byte, string, *string,
// json.RawMessage), typed columns, or generic decoded JSON values.
//
// Any parse or validation failure returns nil. It never panics.
func ParseColumnsConfig(raw any) []Column {
	var cols []Column
	switch v := raw.(type) {
	case nil:
		return nil
	case []Column:
		cols = v
	case []byte:
		cols = decodeColumns(v)
	case json.RawMessage:
		cols = decodeColumns(v)
	case string:
		cols = decodeColumns([]byte(v))
	case *string:
		if v == nil {
			return nil
		}
		cols = decodeColumns([]byte(*v))
	default:
		// Generic values such as []any from a decoded request body.
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		cols = decodeColumns(data)
	}
	if cols == nil {
		return nil
	}
	normalized, err := ValidateColumns(cols)
	if err != nil {
		return nil
	}
	return normalized
}

func decodeColumns(data []byte) []Column {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil
	}
	var cols []Column
	if err := json.Unmarshal(data, &cols); err != nil {
		return nil
	}
	return cols
}

// ResolveColumns always returns a valid, non-empty column list owned by the
// caller. A nil, empty or invalid config yields a fresh copy of DefaultColumns.
func ResolveColumns(config []Column) []Column {
	if len(config) == 0 {
		return DefaultColumns()
	}
	normalized, err := ValidateColumns(config)
	if err != nil {
		return DefaultColumns()
	}
	return normalized
}

// ResolveStored resolves a project's stored config. A nil pointer means defaults.
func ResolveStored(stored *string) []Column {
	return ResolveColumns(ParseColumnsConfig(stored))
}

// MarshalColumns encodes columns in the canonical persisted form.
// Callers pass normalized output from ValidateColumns.
func MarshalColumns(cols []Column) (string, error) {
	data, err := json.Marshal(cols)
	if err != nil {
		return "", fmt.Errorf("workflow: marshal columns: %w", err)
	}
	return string(data), nil
}

// CanonicalConfig returns the canonical stored form of a raw stored config,
// or nil when the config is absent or invalid.
func CanonicalConfig(stored *string) (*string, error) {
	cols := ParseColumnsConfig(stored)
	if cols == nil {
		return nil, nil
	}
	s, err := MarshalColumns(cols)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

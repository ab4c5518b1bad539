package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ToList normalizes an array-of-URLs column value into a list of strings.
//
// Older rows store a single URL where newer rows store an array, and drivers hand
// arrays back in different shapes. nil and "" become an empty list, a bare string a
// one-element list, a JSON-encoded array (as string or bytes) is decoded. Anything
// else is an error and the caller decides whether to skip the field.
func ToList(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case string:
		return stringToList(v)
	case []byte:
		return stringToList(string(v))
	case json.RawMessage:
		return stringToList(string(v))
	case []string:
		return append([]string{}, v...), nil
	case StringList:
		return append([]string{}, v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d is %T, not a string", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported list value of type %T", value)
}

func stringToList(s string) ([]string, error) {
	trimmed := strings.TrimSpace(s)
	switch {
	case trimmed == "" || trimmed == "null":
		return []string{}, nil
	case strings.HasPrefix(trimmed, "["):
		var out []string
		if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		if out == nil {
			out = []string{}
		}
		return out, nil
	}
	return []string{s}, nil
}

// StringList is a JSON array column of strings. It reads legacy scalar values as a
// one-element list.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	list, err := ToList(src)
	if err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	*l = list
	return nil
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	list, err := ToList(raw)
	if err != nil {
		return err
	}
	*l = list
	return nil
}

// GormDataType tells GORM the column holds JSON.
func (StringList) GormDataType() string {
	return "json"
}

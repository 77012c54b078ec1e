package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Custom serializers for the slice-valued columns. Both are stored as JSON
// text so element ordering survives the round trip unchanged.

type VideoList []Video

// Value implements the driver.Valuer interface.
func (v VideoList) Value() (driver.Value, error) {
	if len(v) == 0 {
		return "", nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize video list, %w", err)
	}

	return string(b), nil
}

// Scan implements the sql.Scanner interface.
func (v *VideoList) Scan(value any) error {
	str, err := columnString(value)
	if err != nil {
		return fmt.Errorf("failed to scan VideoList, %w", err)
	}

	if str == "" {
		*v = nil
		return nil
	}

	return json.Unmarshal([]byte(str), v)
}

type StringList []string

// Value implements the driver.Valuer interface.
func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "", nil
	}

	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to serialize string list, %w", err)
	}

	return string(b), nil
}

// Scan implements the sql.Scanner interface.
func (s *StringList) Scan(value any) error {
	str, err := columnString(value)
	if err != nil {
		return fmt.Errorf("failed to scan StringList, %w", err)
	}

	if str == "" {
		*s = nil
		return nil
	}

	return json.Unmarshal([]byte(str), s)
}

func columnString(value any) (string, error) {
	if value == nil {
		return "", nil
	}

	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unexpected column type %T", value)
	}
}

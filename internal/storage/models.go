package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a profile's email is already taken.
var ErrDuplicateEmail = errors.New("email already exists")

// Repeated fields are persisted as JSON text columns. The helpers below are
// the only place that knows about that encoding; callers always see native
// slices and maps.

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeStrings(column, raw string) ([]string, error) {
	out := []string{}
	if raw == "" || raw == "null" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", column, err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func decodeLinks(raw string) (map[string]string, error) {
	out := map[string]string{}
	if raw == "" || raw == "null" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decoding links: %w", err)
	}
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

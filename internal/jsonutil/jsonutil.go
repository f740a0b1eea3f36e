// Package jsonutil provides shared helpers for decoding and encoding the JSON
// payloads refengine exchanges: seed vectors, archived runs, and CLI output.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// UnmarshalWithContext unmarshals JSON data into v and wraps any error
// with the provided context message.
func UnmarshalWithContext(data []byte, v any, context string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	return nil
}

// UnmarshalArray unmarshals JSON data into a slice and validates that
// the result is non-empty.
func UnmarshalArray[T any](data []byte, context string) ([]T, error) {
	var entries []T
	if err := UnmarshalWithContext(data, &entries, context); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: empty result", context)
	}
	return entries, nil
}

// UnmarshalArrayAllowEmpty unmarshals JSON data into a slice.
// Unlike UnmarshalArray, this allows empty arrays.
func UnmarshalArrayAllowEmpty[T any](data []byte, context string) ([]T, error) {
	var entries []T
	if err := UnmarshalWithContext(data, &entries, context); err != nil {
		return nil, err
	}
	return entries, nil
}

// MarshalString encodes v as compact JSON text, wrapping errors with context.
func MarshalString(v any, context string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", context, err)
	}
	return string(b), nil
}

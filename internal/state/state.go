// Package state defines the numeric state vector evolved by the recursor.
package state

import (
	"fmt"
	"strconv"
	"strings"

	"refengine/internal/jsonutil"
)

// State is an ordered, fixed-length vector of reals. A State is treated as
// immutable once created: transitions return a new State instead of writing
// into their input.
type State []float64

// Len returns the number of elements.
func (s State) Len() int { return len(s) }

// IsEmpty reports whether the state has no elements.
func (s State) IsEmpty() bool { return len(s) == 0 }

// Clone returns an independent copy. Cloning a nil state yields an empty,
// non-nil state so callers can always range over the result.
func (s State) Clone() State {
	out := make(State, len(s))
	copy(out, s)
	return out
}

// Equal reports whether both states have the same length and elements.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the state the same way the glyph canonical form does.
func (s State) String() string {
	return Canonical(s)
}

// Parse reads a comma-separated list of numbers ("1, 2.5, 3").
// An empty or whitespace-only string yields an empty state.
func Parse(text string) (State, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return State{}, nil
	}
	parts := strings.Split(text, ",")
	out := make(State, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseJSON reads a JSON array of numbers ("[1, 2.5, 3]"). A null element
// is rejected rather than read as zero.
func ParseJSON(data []byte) (State, error) {
	values, err := jsonutil.UnmarshalArrayAllowEmpty[*float64](data, "parsing state")
	if err != nil {
		return nil, err
	}
	s, err := fromNullable(values)
	if err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return s, nil
}

// ParseJSONList reads a JSON array of states ("[[1,2],[3,4]]"). A null
// state is empty; a null element inside a state is an error.
func ParseJSONList(data []byte) ([]State, error) {
	lists, err := jsonutil.UnmarshalArray[[]*float64](data, "parsing state list")
	if err != nil {
		return nil, err
	}
	out := make([]State, len(lists))
	for i, l := range lists {
		s, err := fromNullable(l)
		if err != nil {
			return nil, fmt.Errorf("parsing state list: state %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

func fromNullable(values []*float64) (State, error) {
	out := make(State, len(values))
	for i, v := range values {
		if v == nil {
			return nil, fmt.Errorf("element %d is null", i)
		}
		out[i] = *v
	}
	return out, nil
}

// Package memory keeps the append-only history of states a recursor has held.
package memory

import "refengine/internal/state"

// Memory is an ordered, append-only log of states. Entries are copied on the
// way in and out, so callers can never rewrite history. Not safe for
// concurrent use.
type Memory struct {
	history []state.State
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{}
}

// Store appends s to the end of the log. Duplicates are kept.
func (m *Memory) Store(s state.State) {
	m.history = append(m.history, s.Clone())
}

// History returns every stored state, oldest first.
func (m *Memory) History() []state.State {
	out := make([]state.State, len(m.history))
	for i, s := range m.history {
		out[i] = s.Clone()
	}
	return out
}

// Latest returns the most recently stored state. ok is false when nothing
// has been stored yet.
func (m *Memory) Latest() (s state.State, ok bool) {
	if len(m.history) == 0 {
		return nil, false
	}
	return m.history[len(m.history)-1].Clone(), true
}

// Len returns the number of stored states.
func (m *Memory) Len() int { return len(m.history) }

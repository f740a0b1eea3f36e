package evaluator

import "refengine/internal/state"

// DefaultGrowthFactor is the reference transition's per-step scale.
const DefaultGrowthFactor = 1.05

// Transition evolves a state one step. history is a read-only snapshot of
// every state the recursor has held so far, oldest first. Implementations
// must return a new state of the same length and must not retain s.
type Transition interface {
	Next(s state.State, history []state.State) (state.State, error)
}

// TransitionFunc adapts a plain function to the Transition interface.
type TransitionFunc func(s state.State, history []state.State) (state.State, error)

// Next calls f(s, history).
func (f TransitionFunc) Next(s state.State, history []state.State) (state.State, error) {
	return f(s, history)
}

// Growth returns the reference transition: every element scaled by factor.
func Growth(factor float64) Transition {
	return TransitionFunc(func(s state.State, _ []state.State) (state.State, error) {
		out := make(state.State, len(s))
		for i, v := range s {
			out[i] = v * factor
		}
		return out, nil
	})
}

// Identity returns a transition that reproduces its input.
func Identity() Transition {
	return TransitionFunc(func(s state.State, _ []state.State) (state.State, error) {
		return s.Clone(), nil
	})
}

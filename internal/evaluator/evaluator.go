// Package evaluator holds the numeric policy of the recursor: the pluggable
// transition, the tension metric, and the convergence predicate.
package evaluator

import (
	"errors"
	"fmt"
	"math"

	"refengine/internal/state"
)

const (
	// TensionStabilizer is added to the mean so a zero-mean state does not
	// divide by zero.
	TensionStabilizer = 1e-9

	// DefaultConvergenceEpsilon is the distance below which two successive
	// states count as stable.
	DefaultConvergenceEpsilon = 0.001
)

var (
	// ErrLengthMismatch is returned when two states of different lengths are
	// compared.
	ErrLengthMismatch = errors.New("state length mismatch")

	// ErrLengthChanged is returned when a transition produces a state whose
	// length differs from its input.
	ErrLengthChanged = errors.New("transition changed state length")
)

// HistoryReader exposes read access to the states held so far.
// *memory.Memory satisfies it.
type HistoryReader interface {
	History() []state.State
}

// Evaluator applies a Transition and computes the halting metrics. Apart from
// the injected transition it is stateless.
type Evaluator struct {
	transition Transition
}

// New returns an Evaluator driving t. A nil t uses Growth(DefaultGrowthFactor).
func New(t Transition) *Evaluator {
	if t == nil {
		t = Growth(DefaultGrowthFactor)
	}
	return &Evaluator{transition: t}
}

// Recurse applies the transition to s. The transition sees a copy of s and a
// snapshot of mem, so neither can be modified through it. mem may be nil.
func (e *Evaluator) Recurse(s state.State, mem HistoryReader) (state.State, error) {
	var history []state.State
	if mem != nil {
		history = mem.History()
	}
	next, err := e.transition.Next(s.Clone(), history)
	if err != nil {
		return nil, fmt.Errorf("transition: %w", err)
	}
	if len(next) != len(s) {
		return nil, fmt.Errorf("%w: %d -> %d", ErrLengthChanged, len(s), len(next))
	}
	return next, nil
}

// Tension returns the coefficient of variation of s: population standard
// deviation over (mean + TensionStabilizer). An empty state has tension 0.
func Tension(s state.State) float64 {
	if len(s) == 0 {
		return 0
	}
	n := float64(len(s))

	var sum float64
	for _, v := range s {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range s {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / n)

	return std / (mean + TensionStabilizer)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b state.State) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	var sq float64
	for i := range a {
		d := b[i] - a[i]
		sq += d * d
	}
	return math.Sqrt(sq), nil
}

// HasConverged reports whether curr lies strictly within threshold of prev.
// Empty states never converge.
func HasConverged(prev, curr state.State, threshold float64) (bool, error) {
	if len(prev) == 0 || len(curr) == 0 {
		return false, nil
	}
	d, err := Distance(prev, curr)
	if err != nil {
		return false, err
	}
	return d < threshold, nil
}

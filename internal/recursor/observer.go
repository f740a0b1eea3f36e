package recursor

import (
	"context"

	"refengine/internal/state"
)

// RunStart describes a run that is about to begin.
type RunStart struct {
	Config Config
	Seed   state.State
}

// StepEvent describes one executed iteration.
type StepEvent struct {
	Depth   int
	State   state.State // state entering the step
	Glyph   string
	Tension float64

	// Next is the state produced by the transition, or nil when the step
	// halted on tension before the transition ran.
	Next state.State

	// Halt is set on the final step of a run that halted on tension or
	// convergence; HaltNone otherwise.
	Halt HaltReason
}

// Observer receives progress updates from a Recursor. Implementations must
// not block for long; they run inline with the loop.
type Observer interface {
	OnRunStart(ctx context.Context, start RunStart)
	OnStep(ctx context.Context, step StepEvent)
	OnRunEnd(ctx context.Context, result *Result)
	OnRunError(ctx context.Context, err error)
}

// NoopObserver implements Observer with empty methods. Embed it to override
// only the callbacks you need.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(context.Context, RunStart) {}
func (NoopObserver) OnStep(context.Context, StepEvent)    {}
func (NoopObserver) OnRunEnd(context.Context, *Result)    {}
func (NoopObserver) OnRunError(context.Context, error)    {}

// MultiObserver fans out progress updates to multiple observers.
type MultiObserver struct {
	observers []Observer
}

// Ensure MultiObserver implements Observer.
var _ Observer = (*MultiObserver)(nil)

// NewMultiObserver creates a MultiObserver that forwards calls to all provided observers.
// Nil observers are filtered out and not included in the list.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	filtered := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	return &MultiObserver{observers: filtered}
}

// safeCall calls fn with panic recovery. One observer failing shouldn't block others.
func safeCall(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

// OnRunStart forwards the call to all observers.
func (m *MultiObserver) OnRunStart(ctx context.Context, start RunStart) {
	for _, obs := range m.observers {
		safeCall(func() { obs.OnRunStart(ctx, start) })
	}
}

// OnStep forwards the call to all observers.
func (m *MultiObserver) OnStep(ctx context.Context, step StepEvent) {
	for _, obs := range m.observers {
		safeCall(func() { obs.OnStep(ctx, step) })
	}
}

// OnRunEnd forwards the call to all observers.
func (m *MultiObserver) OnRunEnd(ctx context.Context, result *Result) {
	for _, obs := range m.observers {
		safeCall(func() { obs.OnRunEnd(ctx, result) })
	}
}

// OnRunError forwards the call to all observers.
func (m *MultiObserver) OnRunError(ctx context.Context, err error) {
	for _, obs := range m.observers {
		safeCall(func() { obs.OnRunError(ctx, err) })
	}
}

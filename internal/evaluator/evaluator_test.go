package evaluator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refengine/internal/memory"
	"refengine/internal/state"
)

func TestTension(t *testing.T) {
	tests := []struct {
		name string
		in   state.State
		want float64
	}{
		{"empty", state.State{}, 0},
		{"uniform", state.State{2, 2, 2}, 0},
		{"scenario A seed", state.State{1.0, 1.5, 2.0}, 0.272165526794465},
		{"scenario B seed", state.State{1.0, 2.0, 3.0}, 0.40824829025973886},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Tension(tt.in), 1e-12)
		})
	}
}

func TestTension_ScaleInvariant(t *testing.T) {
	s := state.State{1, 2, 3}
	scaled := state.State{1.05, 2.1, 3.15}
	assert.InDelta(t, Tension(s), Tension(scaled), 1e-9)
}

func TestTension_ZeroMeanIsFinite(t *testing.T) {
	got := Tension(state.State{-1, 1})
	assert.False(t, math.IsInf(got, 0))
	assert.False(t, math.IsNaN(got))
}

func TestHasConverged(t *testing.T) {
	tests := []struct {
		name      string
		prev      state.State
		curr      state.State
		threshold float64
		want      bool
	}{
		{"identical", state.State{1, 2}, state.State{1, 2}, DefaultConvergenceEpsilon, true},
		{"within epsilon", state.State{1, 2}, state.State{1.0005, 2}, DefaultConvergenceEpsilon, true},
		{"exactly at threshold is not converged", state.State{0}, state.State{0.5}, 0.5, false},
		{"outside epsilon", state.State{1, 2}, state.State{1.05, 2.1}, DefaultConvergenceEpsilon, false},
		{"empty prev", state.State{}, state.State{1}, 1, false},
		{"empty curr", state.State{1}, state.State{}, 1, false},
		{"both empty", state.State{}, state.State{}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HasConverged(tt.prev, tt.curr, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasConverged_LengthMismatch(t *testing.T) {
	_, err := HasConverged(state.State{1, 2}, state.State{1}, 1)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestDistance(t *testing.T) {
	d, err := Distance(state.State{0, 0}, state.State{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-12)
}

func TestEvaluator_RecurseDefaultGrowth(t *testing.T) {
	e := New(nil)
	next, err := e.Recurse(state.State{1, 2, 3}, nil)
	require.NoError(t, err)
	// Products are float64 at runtime; constant folding would give exact 3.15.
	f := DefaultGrowthFactor
	assert.Equal(t, state.State{1 * f, 2 * f, 3 * f}, next)
	assert.Equal(t, 3.1500000000000004, next[2])
}

func TestEvaluator_RecurseIdentity(t *testing.T) {
	e := New(Identity())
	in := state.State{4, 5}
	next, err := e.Recurse(in, nil)
	require.NoError(t, err)
	assert.Equal(t, in, next)

	next[0] = 100
	assert.Equal(t, 4.0, in[0], "identity must return a new state")
}

func TestEvaluator_RecurseSeesHistorySnapshot(t *testing.T) {
	mem := memory.New()
	mem.Store(state.State{1})
	mem.Store(state.State{2})

	var seen int
	e := New(TransitionFunc(func(s state.State, history []state.State) (state.State, error) {
		seen = len(history)
		history[0][0] = 99 // must not reach memory
		s[0] = 77          // must not reach the caller's state
		return state.State{s[0] + 1}, nil
	}))

	in := state.State{2}
	next, err := e.Recurse(in, mem)
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
	assert.Equal(t, state.State{78}, next)
	assert.Equal(t, state.State{2}, in)
	assert.Equal(t, 1.0, mem.History()[0][0])
}

func TestEvaluator_RecursePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	e := New(TransitionFunc(func(state.State, []state.State) (state.State, error) {
		return nil, boom
	}))
	_, err := e.Recurse(state.State{1}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestEvaluator_RecurseRejectsLengthChange(t *testing.T) {
	e := New(TransitionFunc(func(s state.State, _ []state.State) (state.State, error) {
		return append(s.Clone(), 0), nil
	}))
	_, err := e.Recurse(state.State{1, 2}, nil)
	assert.ErrorIs(t, err, ErrLengthChanged)
}

// Package recursor implements the bounded state-evolution loop.
//
// A Recursor repeatedly applies a transition to a numeric state, halting when
// the state's tension exceeds a threshold, when two successive states
// converge, or when the depth limit is reached. Every executed step is logged
// and fingerprinted with a glyph.
//
// # Basic Usage
//
//	r, err := recursor.New(recursor.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	res, err := r.Run(ctx, state.State{1, 2, 3})
//	// res.FinalState, res.HaltReason, res.Trace
//
// # Progress Observation
//
// Implement Observer to receive live updates:
//
//	r, _ := recursor.New(cfg, recursor.WithObserver(myObserver))
//
// Observers only watch; nothing they do changes how a run halts.
//
// # Custom Transitions
//
// The reference transition scales every element by 1.05. Supply any
// evaluator.Transition with WithTransition.
package recursor

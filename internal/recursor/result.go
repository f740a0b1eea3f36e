package recursor

import (
	"fmt"
	"io"
	"time"

	"refengine/internal/glyph"
	"refengine/internal/state"
)

// Result is the outcome of a completed run.
type Result struct {
	FinalState state.State   `json:"final_state"`
	HaltReason HaltReason    `json:"halt_reason"`
	Trace      []glyph.Entry `json:"trace"`

	// Iterations is the number of loop iterations executed; it always
	// equals len(Trace).
	Iterations int `json:"iterations"`

	// LastTension is the tension of the last state examined, or 0 when no
	// iteration ran.
	LastTension float64       `json:"last_tension"`
	Duration    time.Duration `json:"duration"`
}

// LastGlyph returns the glyph of the final executed step, or "" when the run
// executed no iterations.
func (r *Result) LastGlyph() string {
	if len(r.Trace) == 0 {
		return ""
	}
	return r.Trace[len(r.Trace)-1].Glyph
}

// WriteReport prints the three-line run summary:
//
//	Final State: [1.0, 2.0, 3.0]
//	Last Glyph: 6fcfde68cc27
//	Halt Reason: depth_limit
func WriteReport(w io.Writer, r *Result) {
	writef(w, "Final State: %s\n", state.Canonical(r.FinalState))
	writef(w, "Last Glyph: %s\n", r.LastGlyph())
	writef(w, "Halt Reason: %s\n", r.HaltReason)
}

// writef writes formatted output, ignoring errors.
// Use for non-critical output where write failures are acceptable.
func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

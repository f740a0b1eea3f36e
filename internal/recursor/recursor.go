package recursor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"refengine/internal/ctxlog"
	"refengine/internal/evaluator"
	"refengine/internal/glyph"
	"refengine/internal/memory"
	"refengine/internal/state"
	"refengine/internal/steplog"
)

// Recursor drives the bounded iteration. It exclusively owns its evaluator,
// memory, fingerprinter and step logger; it is not safe for concurrent use,
// but independent Recursors share nothing and may run in parallel.
type Recursor struct {
	cfg      Config
	eval     *evaluator.Evaluator
	memory   *memory.Memory
	glyphs   *glyph.Fingerprinter
	steps    *steplog.Logger
	observer Observer
}

// Option configures a Recursor.
type Option func(*Recursor)

// WithTransition replaces the reference growth transition.
func WithTransition(t evaluator.Transition) Option {
	return func(r *Recursor) { r.eval = evaluator.New(t) }
}

// WithStepLogger installs a pre-configured step logger, e.g. one that emits
// to a live view.
func WithStepLogger(l *steplog.Logger) Option {
	return func(r *Recursor) {
		if l != nil {
			r.steps = l
		}
	}
}

// WithObserver attaches a progress observer.
func WithObserver(o Observer) Option {
	return func(r *Recursor) { r.observer = o }
}

// New validates cfg and builds a Recursor with fresh collaborators.
func New(cfg Config, opts ...Option) (*Recursor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Recursor{
		cfg:    cfg,
		eval:   evaluator.New(nil),
		memory: memory.New(),
		glyphs: glyph.NewFingerprinter(),
		steps:  steplog.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.observer == nil {
		r.observer = NoopObserver{}
	}
	return r, nil
}

// Config returns the effective configuration.
func (r *Recursor) Config() Config { return r.cfg }

// Memory returns the recursor's state history.
func (r *Recursor) Memory() *memory.Memory { return r.memory }

// Fingerprinter returns the recursor's glyph fingerprinter. Its trace spans
// every run made by this Recursor.
func (r *Recursor) Fingerprinter() *glyph.Fingerprinter { return r.glyphs }

// StepLog returns the recursor's step logger.
func (r *Recursor) StepLog() *steplog.Logger { return r.steps }

// Run evolves seed until a halt condition holds. Each iteration:
//  1. Logs and fingerprints the current state
//  2. Halts on tension above the threshold, leaving the state untouched
//  3. Applies the transition and stores the new state
//  4. Halts if the new state converged onto the previous one
//
// Errors from the transition or the evaluator, and cancellation of ctx
// between steps, abort the run and no result is returned.
func (r *Recursor) Run(ctx context.Context, seed state.State) (*Result, error) {
	start := time.Now()
	log := ctxlog.FromContext(ctx)

	current := seed.Clone()
	traceStart := r.glyphs.Len()

	r.observer.OnRunStart(ctx, RunStart{Config: r.cfg, Seed: current.Clone()})
	log.Debug("run start",
		slog.Int("max_depth", r.cfg.MaxDepth),
		slog.Float64("tension_threshold", r.cfg.TensionThreshold),
		slog.Float64("convergence_epsilon", r.cfg.ConvergenceEpsilon),
		slog.Int("dims", current.Len()),
	)

	r.memory.Store(current)

	reason := HaltDepthLimit
	var iterations int
	var tension float64

	for depth := 0; depth < r.cfg.MaxDepth; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, r.fail(ctx, fmt.Errorf("aborted before depth %d: %w", depth, err))
		}

		r.steps.LogState(depth, current)
		g := r.glyphs.Generate(current, depth)
		iterations++

		tension = evaluator.Tension(current)
		step := StepEvent{Depth: depth, State: current.Clone(), Glyph: g, Tension: tension}

		if tension > r.cfg.TensionThreshold {
			reason = HaltTensionExceeded
			step.Halt = reason
			r.observer.OnStep(ctx, step)
			log.Debug("tension exceeded", slog.Int("depth", depth), slog.Float64("tension", tension))
			break
		}

		next, err := r.eval.Recurse(current, r.memory)
		if err != nil {
			return nil, r.fail(ctx, fmt.Errorf("depth %d: %w", depth, err))
		}
		converged, err := evaluator.HasConverged(current, next, r.cfg.ConvergenceEpsilon)
		if err != nil {
			return nil, r.fail(ctx, fmt.Errorf("depth %d: %w", depth, err))
		}

		current = next
		r.memory.Store(current)
		step.Next = next.Clone()

		if converged {
			reason = HaltConverged
			step.Halt = reason
			r.observer.OnStep(ctx, step)
			log.Debug("converged", slog.Int("depth", depth))
			break
		}
		r.observer.OnStep(ctx, step)
	}

	trace := r.glyphs.Trace()[traceStart:]
	result := &Result{
		FinalState:  current,
		HaltReason:  reason,
		Trace:       trace,
		Iterations:  iterations,
		LastTension: tension,
		Duration:    time.Since(start),
	}

	r.observer.OnRunEnd(ctx, result)
	log.Info("run complete",
		slog.String("halt_reason", reason.String()),
		slog.Int("iterations", iterations),
		slog.String("last_glyph", result.LastGlyph()),
	)
	return result, nil
}

func (r *Recursor) fail(ctx context.Context, err error) error {
	r.observer.OnRunError(ctx, err)
	ctxlog.FromContext(ctx).Error("run failed", slog.String("error", err.Error()))
	return err
}

// Run builds a fresh Recursor for cfg and runs seed through it.
func Run(ctx context.Context, seed state.State, cfg Config, opts ...Option) (*Result, error) {
	r, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, seed)
}

package telemetry

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"refengine/internal/recursor"
	"refengine/internal/state"
)

// Attribute keys attached to run and step spans.
const (
	AttrRunID      = attribute.Key("refengine.run_id")
	AttrMaxDepth   = attribute.Key("refengine.max_depth")
	AttrThreshold  = attribute.Key("refengine.tension_threshold")
	AttrEpsilon    = attribute.Key("refengine.convergence_epsilon")
	AttrSeed       = attribute.Key("refengine.seed")
	AttrDepth      = attribute.Key("refengine.depth")
	AttrState      = attribute.Key("refengine.state")
	AttrGlyph      = attribute.Key("refengine.glyph")
	AttrTension    = attribute.Key("refengine.tension")
	AttrHaltReason = attribute.Key("refengine.halt_reason")
	AttrIterations = attribute.Key("refengine.iterations")
)

// TracingObserver implements recursor.Observer. Each run becomes a
// "refengine.run" span with one "refengine.step" child per iteration.
type TracingObserver struct {
	recursor.NoopObserver
	tracer oteltrace.Tracer

	mu      sync.Mutex
	runCtx  context.Context
	runSpan oteltrace.Span
}

var _ recursor.Observer = (*TracingObserver)(nil)

// NewTracingObserver creates an observer that records spans on p's tracer.
func NewTracingObserver(p *Provider) *TracingObserver {
	return &TracingObserver{tracer: p.Tracer()}
}

// OnRunStart opens the run span, tagged with a fresh run ID.
func (o *TracingObserver) OnRunStart(ctx context.Context, start recursor.RunStart) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.runCtx, o.runSpan = o.tracer.Start(ctx, "refengine.run",
		oteltrace.WithAttributes(
			AttrRunID.String(uuid.NewString()),
			AttrMaxDepth.Int(start.Config.MaxDepth),
			AttrThreshold.Float64(start.Config.TensionThreshold),
			AttrEpsilon.Float64(start.Config.ConvergenceEpsilon),
			AttrSeed.String(state.Canonical(start.Seed)),
		),
	)
}

// OnStep records a child span for the iteration.
func (o *TracingObserver) OnStep(_ context.Context, step recursor.StepEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.runSpan == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrDepth.Int(step.Depth),
		AttrState.String(state.Canonical(step.State)),
		AttrGlyph.String(step.Glyph),
		AttrTension.Float64(step.Tension),
	}
	if step.Halt != recursor.HaltNone {
		attrs = append(attrs, AttrHaltReason.String(step.Halt.String()))
	}
	_, span := o.tracer.Start(o.runCtx, "refengine.step", oteltrace.WithAttributes(attrs...))
	span.End()
}

// OnRunEnd closes the run span with the outcome.
func (o *TracingObserver) OnRunEnd(_ context.Context, result *recursor.Result) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.runSpan == nil {
		return
	}
	o.runSpan.SetAttributes(
		AttrHaltReason.String(result.HaltReason.String()),
		AttrIterations.Int(result.Iterations),
		AttrGlyph.String(result.LastGlyph()),
	)
	o.runSpan.SetStatus(codes.Ok, "")
	o.endLocked()
}

// OnRunError marks the run span failed and closes it.
func (o *TracingObserver) OnRunError(_ context.Context, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.runSpan == nil {
		return
	}
	o.runSpan.RecordError(err)
	o.runSpan.SetStatus(codes.Error, err.Error())
	o.endLocked()
}

func (o *TracingObserver) endLocked() {
	o.runSpan.End()
	o.runSpan = nil
	o.runCtx = nil
}

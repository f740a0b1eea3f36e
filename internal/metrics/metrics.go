// Package metrics records recursor runs as Prometheus metrics.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"refengine/internal/recursor"
)

const namespace = "refengine"

// Metrics holds the run instruments. It implements recursor.Observer and is
// safe to share between recursors running in parallel.
type Metrics struct {
	recursor.NoopObserver

	// RunsTotal counts completed runs by halt reason.
	RunsTotal *prometheus.CounterVec

	// RunErrorsTotal counts runs aborted with an error.
	RunErrorsTotal prometheus.Counter

	// RunIterations observes iterations executed per completed run.
	RunIterations prometheus.Histogram

	// RunDurationSeconds observes wall time per completed run.
	RunDurationSeconds prometheus.Histogram

	// StepTension observes the tension of every examined state.
	StepTension prometheus.Histogram
}

var _ recursor.Observer = (*Metrics)(nil)

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed runs by halt reason",
			},
			[]string{"halt_reason"},
		),
		RunErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "run_errors_total",
				Help:      "Runs aborted by an error",
			},
		),
		RunIterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_iterations",
				Help:      "Iterations executed per completed run",
				Buckets:   prometheus.LinearBuckets(0, 5, 10),
			},
		),
		RunDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time per completed run",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		StepTension: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_tension",
				Help:      "Tension of each examined state",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.7, 1, 2, 5},
			},
		),
	}
}

// OnStep observes the step's tension.
func (m *Metrics) OnStep(_ context.Context, step recursor.StepEvent) {
	m.StepTension.Observe(step.Tension)
}

// OnRunEnd counts the run and observes its size.
func (m *Metrics) OnRunEnd(_ context.Context, result *recursor.Result) {
	m.RunsTotal.WithLabelValues(result.HaltReason.String()).Inc()
	m.RunIterations.Observe(float64(result.Iterations))
	m.RunDurationSeconds.Observe(result.Duration.Seconds())
}

// OnRunError counts the failed run.
func (m *Metrics) OnRunError(context.Context, error) {
	m.RunErrorsTotal.Inc()
}

// WriteTextfile writes everything gathered by g to path in the text
// exposition format, for pickup by node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics %q: %w", path, err)
	}
	return nil
}

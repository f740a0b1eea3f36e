package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"refengine/internal/metrics"
	"refengine/internal/recursor"
	"refengine/internal/telemetry"
)

// instruments bundles tracing and metrics for one command invocation.
type instruments struct {
	provider    *telemetry.Provider
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	metricsFile string
}

func newInstruments(ctx context.Context, metricsFile string) (*instruments, error) {
	provider, err := telemetry.NewProvider(ctx)
	if err != nil {
		return nil, err
	}
	in := &instruments{provider: provider, metricsFile: metricsFile}
	if metricsFile != "" {
		in.registry = prometheus.NewRegistry()
		in.metrics = metrics.New(in.registry)
	}
	return in, nil
}

// observer returns a fresh observer for one Recursor. Tracing observers hold
// per-run span state, so each Recursor needs its own.
func (in *instruments) observer(extra ...recursor.Observer) recursor.Observer {
	observers := append([]recursor.Observer{}, extra...)
	if in.provider.Enabled() {
		observers = append(observers, telemetry.NewTracingObserver(in.provider))
	}
	if in.metrics != nil {
		observers = append(observers, in.metrics)
	}
	return recursor.NewMultiObserver(observers...)
}

// close writes the metrics textfile and flushes pending spans.
func (in *instruments) close(ctx context.Context) error {
	var errs []error
	if in.metrics != nil {
		errs = append(errs, metrics.WriteTextfile(in.metricsFile, in.registry))
	}
	errs = append(errs, in.provider.Shutdown(ctx))
	return errors.Join(errs...)
}

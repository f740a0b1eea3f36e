// Package telemetry exports recursor runs as OpenTelemetry traces.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// EndpointEnv enables OTLP export when set, e.g. "localhost:4318".
	EndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"
	// ServiceNameEnv overrides the reported service name.
	ServiceNameEnv = "OTEL_SERVICE_NAME"

	defaultServiceName  = "refengine"
	instrumentationName = "refengine/recursor"
)

// Provider owns the tracer used by TracingObserver. The zero-export
// provider returned when no endpoint is configured hands out a no-op tracer.
type Provider struct {
	sdk    *sdktrace.TracerProvider
	tracer oteltrace.Tracer
}

// NewProvider creates an OTLP/HTTP-backed provider if OTEL_EXPORTER_OTLP_ENDPOINT
// is set, and a disabled one otherwise.
func NewProvider(ctx context.Context) (*Provider, error) {
	endpoint := os.Getenv(EndpointEnv)
	if endpoint == "" {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(instrumentationName)}, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}
	return newProvider(sdktrace.WithBatcher(exporter)), nil
}

// NewProviderWithSpanProcessor builds an enabled provider around sp. Tests use
// it with an in-memory exporter.
func NewProviderWithSpanProcessor(sp sdktrace.SpanProcessor) *Provider {
	return newProvider(sdktrace.WithSpanProcessor(sp))
}

func newProvider(opt sdktrace.TracerProviderOption) *Provider {
	serviceName := os.Getenv(ServiceNameEnv)
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)
	sdk := sdktrace.NewTracerProvider(opt, sdktrace.WithResource(res))
	return &Provider{sdk: sdk, tracer: sdk.Tracer(instrumentationName)}
}

// Enabled reports whether spans are exported anywhere.
func (p *Provider) Enabled() bool {
	return p != nil && p.sdk != nil
}

// Tracer returns the provider's tracer.
func (p *Provider) Tracer() oteltrace.Tracer {
	return p.tracer
}

// Shutdown flushes pending spans and closes the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

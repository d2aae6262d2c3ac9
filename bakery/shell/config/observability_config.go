package config

import (
	"context"
	"errors"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	envOTLPEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	defaultOTLPEndpoint    = "localhost:4317"
	defaultServiceName     = "bakery-simulation"
	defaultMetricsInterval = 5 * time.Second
)

var ErrCreatingObservabilityFailed = errors.New("creating the observability providers failed")

// OTLPEndpoint returns the collector endpoint for traces and metrics.
func OTLPEndpoint() string {
	if endpoint := os.Getenv(envOTLPEndpoint); endpoint != "" {
		return endpoint
	}

	return defaultOTLPEndpoint
}

// ObservabilitySettings configure the OTLP exporters. Zero values fall back to the defaults.
type ObservabilitySettings struct {
	ServiceName     string
	ServiceVersion  string
	Endpoint        string
	MetricsInterval time.Duration
}

// ObservabilityProviders holds the OpenTelemetry providers of a run.
type ObservabilityProviders struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Resource       *resource.Resource
}

// NewObservabilityProviders creates providers exporting over OTLP gRPC and installs them globally.
func NewObservabilityProviders(ctx context.Context, settings ObservabilitySettings) (*ObservabilityProviders, error) {
	if settings.ServiceName == "" {
		settings.ServiceName = defaultServiceName
	}

	if settings.Endpoint == "" {
		settings.Endpoint = OTLPEndpoint()
	}

	if settings.MetricsInterval <= 0 {
		settings.MetricsInterval = defaultMetricsInterval
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(settings.ServiceName),
			semconv.ServiceVersionKey.String(settings.ServiceVersion),
		),
	)
	if err != nil {
		return nil, errors.Join(ErrCreatingObservabilityFailed, err)
	}

	traceExporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(settings.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, errors.Join(ErrCreatingObservabilityFailed, err)
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	)

	metricExporter, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(settings.Endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)

		return nil, errors.Join(ErrCreatingObservabilityFailed, err)
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter,
			metric.WithInterval(settings.MetricsInterval))),
		metric.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &ObservabilityProviders{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Resource:       res,
	}, nil
}

// Shutdown flushes and stops both providers.
func (p *ObservabilityProviders) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.TracerProvider.Shutdown(ctx),
		p.MeterProvider.Shutdown(ctx),
	)
}

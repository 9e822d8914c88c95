// Package telemetry wires OpenTelemetry traces and metrics to an OTLP
// collector for the airsight API and worker.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Defaults applied by ConfigFromEnv.
const (
	DefaultOTLPEndpoint   = "localhost:4317"
	DefaultEnvironment    = "development"
	DefaultExportInterval = 15 * time.Second
)

// Config controls export. With Enabled false nothing is exported and the
// global no-op providers stay installed.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	Enabled        bool

	// SampleRatio keeps this fraction of root traces. Values outside (0, 1)
	// keep everything.
	SampleRatio float64

	ExportInterval time.Duration
}

// ConfigFromEnv reads OTEL_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT,
// OTEL_TRACES_SAMPLER_ARG, OTEL_METRIC_EXPORT_INTERVAL (milliseconds, as in
// the OpenTelemetry SDK convention) and APP_ENV.
func ConfigFromEnv(serviceName, version string) (Config, error) {
	cfg := Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    envOr("APP_ENV", DefaultEnvironment),
		OTLPEndpoint:   envOr("OTEL_EXPORTER_OTLP_ENDPOINT", DefaultOTLPEndpoint),
		Enabled:        os.Getenv("OTEL_ENABLED") == "true",
		ExportInterval: DefaultExportInterval,
	}

	var errs []error
	if raw := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); raw != "" {
		ratio, err := strconv.ParseFloat(raw, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			errs = append(errs, fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be a number in [0, 1], got %q", raw))
		} else {
			cfg.SampleRatio = ratio
		}
	}
	if raw := os.Getenv("OTEL_METRIC_EXPORT_INTERVAL"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			errs = append(errs, fmt.Errorf("OTEL_METRIC_EXPORT_INTERVAL must be a positive number of milliseconds, got %q", raw))
		} else {
			cfg.ExportInterval = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg, errors.Join(errs...)
}

// Provider owns whatever Init installed and tears it down.
type Provider struct {
	shutdowns []func(context.Context) error
}

// Enabled reports whether exporters are running.
func (p *Provider) Enabled() bool {
	return len(p.shutdowns) > 0
}

// Shutdown flushes pending telemetry. Every exporter is given the chance to
// flush even when an earlier one fails.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(p.shutdowns) - 1; i >= 0; i-- {
		errs = append(errs, p.shutdowns[i](ctx))
	}
	p.shutdowns = nil
	return errors.Join(errs...)
}

// Init installs OTLP/gRPC trace and metric pipelines as the global
// providers along with W3C trace-context and baggage propagation.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{}
	if !cfg.Enabled {
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building resource: %w", err)
	}

	spans, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spans),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg)),
	)
	p.shutdowns = append(p.shutdowns, tracerProvider.Shutdown)

	measurements, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	interval := cfg.ExportInterval
	if interval <= 0 {
		interval = DefaultExportInterval
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(measurements, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	p.shutdowns = append(p.shutdowns, meterProvider.Shutdown)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return p, nil
}

// Sampler keeps cfg.SampleRatio of new traces and follows the caller's
// decision for propagated ones.
func Sampler(cfg Config) sdktrace.Sampler {
	root := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		root = sdktrace.TraceIDRatioBased(cfg.SampleRatio)
	}
	return sdktrace.ParentBased(root)
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

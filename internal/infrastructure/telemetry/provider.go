// Package telemetry wires OpenTelemetry traces, metrics and logs for the
// claims service and provides the span and instrument helpers the
// application layer records through.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceVersion is reported on every exported resource.
const ServiceVersion = "1.0.0"

const (
	defaultExportInterval = 60 * time.Second
	flushTimeout          = 10 * time.Second
)

// Settings selects which signals are exported to the collector. All three
// pipelines share one endpoint and service resource.
type Settings struct {
	ServiceName       string
	CollectorEndpoint string
	Insecure          bool

	TracesEnabled bool
	SamplingRatio float64

	MetricsEnabled bool
	ExportInterval time.Duration

	LogsEnabled bool
}

// Provider owns the SDK providers for the enabled signals. A disabled signal
// leaves its field nil and the global no-op implementation in place.
type Provider struct {
	traces *sdktrace.TracerProvider
	meters *sdkmetric.MeterProvider
	logs   *sdklog.LoggerProvider
	logger *zap.Logger
}

// NewProvider builds the OTLP/gRPC pipelines named in s and installs them as
// the process globals.
func NewProvider(ctx context.Context, s Settings, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{logger: logger}
	if !s.TracesEnabled && !s.MetricsEnabled && !s.LogsEnabled {
		logger.Info("Telemetry export disabled")
		return p, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(s.ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if s.TracesEnabled {
		if p.traces, err = newTraces(ctx, s, res); err != nil {
			return nil, err
		}
		otel.SetTracerProvider(p.traces)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))
	}
	if s.MetricsEnabled {
		if p.meters, err = newMeters(ctx, s, res); err != nil {
			return nil, err
		}
		otel.SetMeterProvider(p.meters)
	}
	if s.LogsEnabled {
		if p.logs, err = newLogs(ctx, s, res); err != nil {
			return nil, err
		}
		global.SetLoggerProvider(p.logs)
	}

	logger.Info("OpenTelemetry initialized",
		zap.String("collector_endpoint", s.CollectorEndpoint),
		zap.String("service_name", s.ServiceName),
		zap.Bool("traces", s.TracesEnabled),
		zap.Float64("sampling_ratio", s.SamplingRatio),
		zap.Bool("metrics", s.MetricsEnabled),
		zap.Bool("logs", s.LogsEnabled),
	)
	return p, nil
}

func newTraces(ctx context.Context, s Settings, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(s.CollectorEndpoint)}
	if s.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(s.SamplingRatio)),
	), nil
}

func newMeters(ctx context.Context, s Settings, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(s.CollectorEndpoint)}
	if s.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	interval := s.ExportInterval
	if interval <= 0 {
		interval = defaultExportInterval
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	), nil
}

func newLogs(ctx context.Context, s Settings, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(s.CollectorEndpoint)}
	if s.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}
	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	), nil
}

func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1.0:
		return sdktrace.AlwaysSample()
	case ratio <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// Meter returns a named meter. With metrics disabled it comes from the
// global no-op provider.
func (p *Provider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p == nil || p.meters == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return p.meters.Meter(name, opts...)
}

// MetricsEnabled reports whether recorded instruments reach the collector.
func (p *Provider) MetricsEnabled() bool { return p != nil && p.meters != nil }

// TracesEnabled reports whether spans reach the collector.
func (p *Provider) TracesEnabled() bool { return p != nil && p.traces != nil }

// LogsEnabled reports whether the zap bridge has somewhere to send entries.
func (p *Provider) LogsEnabled() bool { return p != nil && p.logs != nil }

// ZapCore returns a core forwarding entries to the OTLP log pipeline under
// the given instrumentation scope, or a no-op core when logs are disabled.
// logger.New tees it with the stdout core at the configured level.
func (p *Provider) ZapCore(scope string) zapcore.Core {
	if !p.LogsEnabled() {
		return zapcore.NewNopCore()
	}
	return otelzap.NewCore(scope, otelzap.WithLoggerProvider(p.logs))
}

// Shutdown flushes and stops every enabled pipeline, bounded by flushTimeout.
// All pipelines are attempted even when one fails.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	var errs []error
	if p.traces != nil {
		if err := p.traces.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.meters != nil {
		if err := p.meters.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	if p.logs != nil {
		if err := p.logs.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("logger provider: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		p.logger.Error("Telemetry shutdown incomplete", zap.Error(err))
		return err
	}
	p.logger.Info("Telemetry shutdown complete")
	return nil
}

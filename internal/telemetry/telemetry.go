// Package telemetry installs the OpenTelemetry tracer provider that the
// fetcher and site spans report to. With no endpoint configured the global
// no-op provider stays in place.
package telemetry

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"courtscrape/internal/config"
)

// Telemetry owns the installed provider.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
}

// Enabled reports whether Setup installed a provider.
func (t Telemetry) Enabled() bool { return t.TracerProvider != nil }

// Shutdown flushes buffered spans and stops the exporter.
func (t Telemetry) Shutdown(ctx context.Context) error {
	if t.TracerProvider == nil {
		return nil
	}
	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		return eris.Wrap(err, "telemetry: shutdown")
	}
	return nil
}

// Setup builds an OTLP exporter for cfg and makes its provider the global one.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (Telemetry, error) {
	if cfg.Endpoint == "" {
		return Telemetry{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	r, err := newResource(cfg.ServiceName)
	if err != nil {
		return Telemetry{}, eris.Wrap(err, "telemetry: resource")
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return Telemetry{}, eris.Wrapf(err, "telemetry: %s exporter", cfg.Protocol)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(tp)

	zap.L().Info("tracer export initialized",
		zap.String("protocol", cfg.Protocol),
		zap.String("endpoint", cfg.Endpoint),
		zap.Bool("headers", len(cfg.Headers) > 0),
	)
	return Telemetry{TracerProvider: tp}, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = "courtscrape"
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func newExporter(ctx context.Context, cfg config.TelemetryConfig) (sdktrace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	switch cfg.Protocol {
	case "grpc":
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(cfg.Endpoint),
			otlptracegrpc.WithHeaders(cfg.Headers),
		)
	case "http", "":
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(cfg.Endpoint),
			otlptracehttp.WithHeaders(cfg.Headers),
		)
	default:
		return nil, eris.Errorf("unknown protocol %q", cfg.Protocol)
	}
}

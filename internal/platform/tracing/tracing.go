package tracing

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// ShutdownFunc flushes and stops the installed tracer provider.
type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider for the selected exporter. The
// gorm tracing plugin and any future spans pick it up through otel.
// The otlp exporter reads its endpoint from the standard OTEL_EXPORTER_OTLP_*
// variables.
func Setup(ctx context.Context, exporter string, serviceName string, stdout io.Writer, logger *slog.Logger) (ShutdownFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		spanExporter sdktrace.SpanExporter
		err          error
	)
	switch exporter {
	case "", ExporterNone:
		return func(context.Context) error { return nil }, nil
	case ExporterStdout:
		opts := []stdouttrace.Option{}
		if stdout != nil {
			opts = append(opts, stdouttrace.WithWriter(stdout))
		}
		spanExporter, err = stdouttrace.New(opts...)
	case ExporterOTLP:
		spanExporter, err = otlptracehttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported tracing exporter %q", exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s trace exporter: %w", exporter, err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(provider)

	logger.Info("tracing enabled",
		"event", "tracing_enabled",
		"module", "internal/platform/tracing",
		"layer", "platform",
		"exporter", exporter,
	)
	return provider.Shutdown, nil
}

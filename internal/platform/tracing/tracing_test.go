package tracing

import (
	"bytes"
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetupNoneIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), ExporterNone, "assembleia", nil, nil)
	if err != nil {
		t.Fatalf("setup tracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupStdoutExportsSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var out bytes.Buffer
	shutdown, err := Setup(context.Background(), ExporterStdout, "assembleia-test", &out, nil)
	if err != nil {
		t.Fatalf("setup tracing: %v", err)
	}

	_, span := otel.Tracer("tracing-test").Start(context.Background(), "probe")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("probe")) {
		t.Fatalf("expected exported span in output, got %q", out.String())
	}
}

func TestSetupRejectsUnknownExporter(t *testing.T) {
	if _, err := Setup(context.Background(), "jaeger", "assembleia", nil, nil); err == nil {
		t.Fatalf("expected unsupported exporter error")
	}
}

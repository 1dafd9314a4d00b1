package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

func TestInitTracer_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var spans, logs bytes.Buffer
	shutdown, err := InitTracer("gateway-test", &spans, zerolog.New(&logs))
	if err != nil {
		t.Fatalf("InitTracer returned error: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "export-check")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
	if !strings.Contains(spans.String(), `"Name":"export-check"`) {
		t.Fatalf("expected exported span, got %q", spans.String())
	}
	if !strings.Contains(spans.String(), "gateway-test") {
		t.Fatalf("expected service name in resource, got %q", spans.String())
	}
	if !strings.Contains(logs.String(), "tracing initialized") {
		t.Fatalf("expected init log line, got %q", logs.String())
	}
}

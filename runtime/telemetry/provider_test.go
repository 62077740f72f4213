package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestTracer_NilProvider(t *testing.T) {
	tracer := Tracer(nil)
	if tracer == nil {
		t.Fatal("expected non-nil tracer")
	}
}

func TestTracer_WithProvider(t *testing.T) {
	tracer := Tracer(noop.NewTracerProvider())
	if tracer == nil {
		t.Fatal("expected non-nil tracer")
	}
}

func TestNewTracerProvider(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp, err := NewTracerProvider("test-service", sdktrace.WithSyncer(exp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := Tracer(tp).Start(context.Background(), "op")
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := spans[0].InstrumentationScope.Name; got != InstrumentationName {
		t.Errorf("expected scope %q, got %q", InstrumentationName, got)
	}

	found := false
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" && kv.Value == attribute.StringValue("test-service") {
			found = true
		}
	}
	if !found {
		t.Errorf("service.name not set on resource: %v", spans[0].Resource.Attributes())
	}
}

package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingHooksRecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	h := NewTracingHooks(tp.Tracer("test"))

	ctx := h.OnStageStart(context.Background(), "merge", "7.0")
	h.OnStageComplete(ctx, "merge", "7.0", true, time.Millisecond, nil)

	ctx = h.OnStageStart(context.Background(), "remap", "7.0")
	h.OnStageComplete(ctx, "remap", "7.0", false, time.Millisecond, errors.New("boom"))

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "jarmill.stage.merge" {
		t.Errorf("span name = %s", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("merge span status = %v", spans[0].Status().Code)
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("remap span status = %v, want Error", spans[1].Status().Code)
	}
}

func TestMetricsHooksWithNoopMeter(t *testing.T) {
	m, err := NewMetricsHooks(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetricsHooks() error: %v", err)
	}

	ctx := m.OnStageStart(context.Background(), "acquire", "7.0")
	m.OnStageComplete(ctx, "acquire", "7.0", false, time.Second, errors.New("boom"))
	m.OnCacheHit(ctx, "manifest")
	m.OnCacheMiss(ctx, "manifest")
	m.OnCacheSet(ctx, "manifest", 10)
	m.OnRequest(ctx, "GET", "example.com", "/a")
	m.OnResponse(ctx, "GET", "example.com", "/a", 200, time.Second)
	m.OnError(ctx, "GET", "example.com", "/a", errors.New("reset"))
}

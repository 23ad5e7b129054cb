package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// TracingHooks records one span per pipeline stage.
// Span names follow "jarmill.stage.<stage>".
type TracingHooks struct {
	tracer trace.Tracer
}

// NewTracingHooks wraps an OpenTelemetry tracer as PipelineHooks.
func NewTracingHooks(t trace.Tracer) *TracingHooks {
	return &TracingHooks{tracer: t}
}

// OnStageStart starts a span for the stage and returns a context carrying it.
func (h *TracingHooks) OnStageStart(ctx context.Context, stage, version string) context.Context {
	ctx, _ = h.tracer.Start(ctx, "jarmill.stage."+stage,
		trace.WithAttributes(
			attribute.String("jarmill.stage", stage),
			attribute.String("jarmill.version", version),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx
}

// OnStageComplete ends the span started by OnStageStart, recording the error
// status if present.
func (h *TracingHooks) OnStageComplete(ctx context.Context, stage, version string, cached bool, d time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Bool("jarmill.cached", cached),
		attribute.Int64("jarmill.duration_ms", d.Milliseconds()),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// MetricsHooks records counters and durations for stages, manifest cache
// lookups and downloads. It implements PipelineHooks, CacheHooks and
// HTTPHooks so a single instance can be registered for all three.
type MetricsHooks struct {
	stageTotal    metric.Int64Counter
	stageErrors   metric.Int64Counter
	stageDuration metric.Float64Histogram
	cacheEvents   metric.Int64Counter
	httpRequests  metric.Int64Counter
	httpErrors    metric.Int64Counter
}

// NewMetricsHooks creates the instruments on meter.
func NewMetricsHooks(meter metric.Meter) (*MetricsHooks, error) {
	stageTotal, err := meter.Int64Counter(
		"jarmill.stage.total",
		metric.WithDescription("Total number of pipeline stage executions"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter(
		"jarmill.stage.errors",
		metric.WithDescription("Total number of failed pipeline stages"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"jarmill.stage.duration_ms",
		metric.WithDescription("Pipeline stage duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheEvents, err := meter.Int64Counter(
		"jarmill.cache.events",
		metric.WithDescription("Manifest cache hits, misses and writes"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	httpRequests, err := meter.Int64Counter(
		"jarmill.http.requests",
		metric.WithDescription("Outgoing download requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	httpErrors, err := meter.Int64Counter(
		"jarmill.http.errors",
		metric.WithDescription("Failed download requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsHooks{
		stageTotal:    stageTotal,
		stageErrors:   stageErrors,
		stageDuration: stageDuration,
		cacheEvents:   cacheEvents,
		httpRequests:  httpRequests,
		httpErrors:    httpErrors,
	}, nil
}

func (m *MetricsHooks) OnStageStart(ctx context.Context, _, _ string) context.Context { return ctx }

func (m *MetricsHooks) OnStageComplete(ctx context.Context, stage, _ string, cached bool, d time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.Bool("cached", cached),
	)
	m.stageTotal.Add(ctx, 1, opt)
	m.stageDuration.Record(ctx, float64(d.Microseconds())/1000.0, opt)
	if err != nil {
		m.stageErrors.Add(ctx, 1, opt)
	}
}

func (m *MetricsHooks) OnCacheHit(ctx context.Context, keyType string) {
	m.cacheEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key_type", keyType), attribute.String("event", "hit")))
}

func (m *MetricsHooks) OnCacheMiss(ctx context.Context, keyType string) {
	m.cacheEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key_type", keyType), attribute.String("event", "miss")))
}

func (m *MetricsHooks) OnCacheSet(ctx context.Context, keyType string, _ int) {
	m.cacheEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key_type", keyType), attribute.String("event", "set")))
}

func (m *MetricsHooks) OnRequest(ctx context.Context, method, host, _ string) {
	m.httpRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method), attribute.String("host", host)))
}

func (m *MetricsHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}

func (m *MetricsHooks) OnError(ctx context.Context, method, host, _ string, _ error) {
	m.httpErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method), attribute.String("host", host)))
}

var (
	_ PipelineHooks = (*TracingHooks)(nil)
	_ PipelineHooks = (*MetricsHooks)(nil)
	_ CacheHooks    = (*MetricsHooks)(nil)
	_ HTTPHooks     = (*MetricsHooks)(nil)
)

package cli

import (
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/matzehuels/jarmill/pkg/observability"
)

// setupTelemetry installs a stdout span exporter and registers the tracing
// and metrics hooks. Spans are flushed by Close.
func (c *CLI) setupTelemetry() error {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	if err != nil {
		return err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	c.closers = append(c.closers, tp.Shutdown)

	metrics, err := observability.NewMetricsHooks(otel.Meter(appName))
	if err != nil {
		return err
	}
	observability.SetPipelineHooks(observability.MultiPipelineHooks{
		observability.NewTracingHooks(tp.Tracer(appName)),
		metrics,
	})
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)

	c.Logger.Debug("tracing enabled")
	return nil
}

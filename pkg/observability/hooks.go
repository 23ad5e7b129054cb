// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without threading a telemetry
// backend through every stage. Consumers register hooks at startup to receive
// events about stage execution, manifest cache lookups, and downloads.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// OpenTelemetry-backed implementations live in otel.go; main wires them in
// when tracing is requested.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(observability.NewTracingHooks(tracer))
//	    // ... run pipeline
//	}
//
// Stages call hooks to emit events:
//
//	ctx = observability.Pipeline().OnStageStart(ctx, "merge", version)
//	// ... merge jars ...
//	observability.Pipeline().OnStageComplete(ctx, "merge", version, hit, duration, err)
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the artifact pipeline.
type PipelineHooks interface {
	// OnStageStart is called before a stage runs. The returned context is
	// passed to the stage and to OnStageComplete, which lets tracing hooks
	// attach a span.
	OnStageStart(ctx context.Context, stage, version string) context.Context

	// OnStageComplete is called after a stage returns. cached is true when
	// the stage reused existing artifacts instead of recomputing them.
	OnStageComplete(ctx context.Context, stage, version string, cached bool, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives manifest cache lookups and writes. keyType names what
// was looked up, currently always "manifest".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives manifest and jar download events. OnError is for
// transport failures only; an error status still arrives via OnResponse.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks ignores every event. Embed it to implement only some
// methods.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(ctx context.Context, _, _ string) context.Context { return ctx }
func (NoopPipelineHooks) OnStageComplete(context.Context, string, string, bool, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Fan-out
// =============================================================================

// MultiPipelineHooks forwards every event to each hook in order.
type MultiPipelineHooks []PipelineHooks

func (m MultiPipelineHooks) OnStageStart(ctx context.Context, stage, version string) context.Context {
	for _, h := range m {
		ctx = h.OnStageStart(ctx, stage, version)
	}
	return ctx
}

func (m MultiPipelineHooks) OnStageComplete(ctx context.Context, stage, version string, cached bool, d time.Duration, err error) {
	for _, h := range m {
		h.OnStageComplete(ctx, stage, version, cached, d, err)
	}
}

// =============================================================================
// Registry
// =============================================================================

// registry is swapped as a whole so a reader never sees a half-updated set.
type registry struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var (
	current atomic.Pointer[registry]
	writeMu sync.Mutex
)

func init() { Reset() }

func update(fn func(r *registry)) {
	writeMu.Lock()
	defer writeMu.Unlock()
	next := *current.Load()
	fn(&next)
	current.Store(&next)
}

// SetPipelineHooks registers stage hooks. Call it at startup, before any
// Runner executes. A nil value is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(r *registry) { r.pipeline = h })
	}
}

// SetCacheHooks registers manifest cache hooks. A nil value is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(r *registry) { r.cache = h })
	}
}

// SetHTTPHooks registers download hooks. A nil value is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(r *registry) { r.http = h })
	}
}

// Pipeline returns the registered stage hooks.
func Pipeline() PipelineHooks { return current.Load().pipeline }

// Cache returns the registered manifest cache hooks.
func Cache() CacheHooks { return current.Load().cache }

// HTTP returns the registered download hooks.
func HTTP() HTTPHooks { return current.Load().http }

// Reset restores the no-op hooks. Tests that register hooks should defer it.
func Reset() {
	writeMu.Lock()
	defer writeMu.Unlock()
	current.Store(&registry{
		pipeline: NoopPipelineHooks{},
		cache:    NoopCacheHooks{},
		http:     NoopHTTPHooks{},
	})
}

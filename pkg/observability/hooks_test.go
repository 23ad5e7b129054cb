package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }

type recordingHooks struct {
	NoopPipelineHooks
	events  []string
	lastErr error
}

func (r *recordingHooks) OnStageStart(ctx context.Context, stage, _ string) context.Context {
	r.events = append(r.events, "start:"+stage)
	return ctx
}

func (r *recordingHooks) OnStageComplete(_ context.Context, stage, _ string, _ bool, _ time.Duration, err error) {
	r.events = append(r.events, "done:"+stage)
	r.lastErr = err
}

func TestRegistryDefaults(t *testing.T) {
	Reset()
	ctx := context.Background()

	if got := Pipeline().OnStageStart(ctx, "merge", "7.0"); got != ctx {
		t.Error("default OnStageStart should return ctx unchanged")
	}
	Pipeline().OnStageComplete(ctx, "merge", "7.0", true, time.Second, nil)
	Cache().OnCacheHit(ctx, "manifest")
	Cache().OnCacheSet(ctx, "manifest", 1024)
	HTTP().OnResponse(ctx, "GET", "example.com", "/client.jar", 200, time.Second)
	HTTP().OnError(ctx, "GET", "example.com", "/client.jar", nil)
}

func TestRegistrySetAndReset(t *testing.T) {
	t.Cleanup(Reset)

	p, c, h := &testPipelineHooks{}, &testCacheHooks{}, &testHTTPHooks{}
	SetPipelineHooks(p)
	SetCacheHooks(c)
	SetHTTPHooks(h)

	if Pipeline() != p || Cache() != c || HTTP() != h {
		t.Fatal("registered hooks not returned")
	}

	// Setting one kind must leave the others alone.
	p2 := &testPipelineHooks{}
	SetPipelineHooks(p2)
	if Pipeline() != p2 || Cache() != c {
		t.Error("SetPipelineHooks replaced more than the pipeline hooks")
	}

	SetPipelineHooks(nil)
	SetCacheHooks(nil)
	SetHTTPHooks(nil)
	if Pipeline() != p2 || Cache() != c || HTTP() != h {
		t.Error("nil hooks should be ignored")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset() should restore NoopHTTPHooks")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	t.Cleanup(Reset)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetCacheHooks(&testCacheHooks{})
		}()
		go func() {
			defer wg.Done()
			Cache().OnCacheMiss(context.Background(), "manifest")
		}()
	}
	wg.Wait()

	if _, ok := Cache().(*testCacheHooks); !ok {
		t.Errorf("Cache() = %T after concurrent sets", Cache())
	}
}

func TestMultiPipelineHooks(t *testing.T) {
	a, b := &recordingHooks{}, &recordingHooks{}
	m := MultiPipelineHooks{a, b}

	ctx := m.OnStageStart(context.Background(), "remap", "7.0")
	m.OnStageComplete(ctx, "remap", "7.0", false, time.Millisecond, errors.New("boom"))

	for i, r := range []*recordingHooks{a, b} {
		if len(r.events) != 2 || r.events[0] != "start:remap" || r.events[1] != "done:remap" {
			t.Errorf("hook %d events = %v", i, r.events)
		}
		if r.lastErr == nil {
			t.Errorf("hook %d should see the error", i)
		}
	}
}

package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/jarmill/pkg/acquire"
	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/errors"
	"github.com/matzehuels/jarmill/pkg/mappings"
	"github.com/matzehuels/jarmill/pkg/merge"
	"github.com/matzehuels/jarmill/pkg/observability"
	"github.com/matzehuels/jarmill/pkg/remap"
)

// Runner wires the stages together.
//
// The Runner holds no per-run state. Concurrent runs for different versions
// or mapping sets are safe; concurrent runs for the same artifacts must be
// serialized by the caller.
type Runner struct {
	Layout   artifact.Layout
	Fetcher  acquire.Fetcher
	Merger   merge.Merger
	Engine   remap.Engine
	Mappings mappings.Provider
	Logger   *log.Logger
}

// NewRunner creates a runner with the default merger and remap engine.
// If logger is nil, output is discarded.
func NewRunner(layout artifact.Layout, m mappings.Provider, f acquire.Fetcher, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Layout:   layout,
		Fetcher:  f,
		Merger:   &merge.ZipMerger{Logger: logger},
		Engine:   remap.ClassEngine{},
		Mappings: m,
		Logger:   logger,
	}
}

// Resolve validates the run inputs and returns the artifact set for them
// without touching the file system.
func (r *Runner) Resolve(version string) (artifact.Set, error) {
	if err := r.validate(version); err != nil {
		return artifact.Set{}, err
	}
	return r.Layout.Resolve(version, r.Mappings.Identity()), nil
}

// Execute runs Acquire → Merge → Remap for version.
func (r *Runner) Execute(ctx context.Context, version string, cfg Config) (*Result, error) {
	set, err := r.Resolve(version)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{
		RunID:     uuid.NewString(),
		Version:   version,
		Mapping:   r.Mappings.Identity(),
		Artifacts: set,
		name:      r.Layout.Name,
	}
	logger := r.Logger.With("run", result.RunID[:8])

	// Stage 1: Acquire
	var acq acquire.Result
	_, result.Stats.AcquireTime, err = r.stage(ctx, StageAcquire, version, func(ctx context.Context) (bool, error) {
		var err error
		acq, err = acquire.NewStage(r.Fetcher, logger).Run(ctx, acquire.Input{
			Version: version,
			Client:  set.Client,
			Server:  set.Server,
			Merged:  set.Merged,
			Config: acquire.Config{
				Offline:     cfg.Offline,
				ShareCaches: cfg.ShareCaches,
				RootProject: cfg.RootProject,
				Refresh:     cfg.Refresh,
			},
		})
		return !acq.Fetched, err
	})
	if err != nil {
		return nil, err
	}
	result.CacheInfo.AcquireSkipped = !acq.Fetched

	// Stage 2: Merge
	if acq.SkipMerge {
		result.CacheInfo.MergeSkipped = true
		logger.Debug("skipping merge", "reason", acq.Reason)
	} else {
		result.CacheInfo.MergeHit, result.Stats.MergeTime, err = r.stage(ctx, StageMerge, version, func(ctx context.Context) (bool, error) {
			return merge.NewStage(r.Merger, logger).Run(ctx, merge.Input{
				Client:  set.Client,
				Server:  set.Server,
				Merged:  set.Merged,
				Refresh: cfg.Refresh,
			})
		})
		if err != nil {
			return nil, err
		}
	}

	// Stage 3: Remap
	result.CacheInfo.RemapHit, result.Stats.RemapTime, err = r.stage(ctx, StageRemap, version, func(ctx context.Context) (bool, error) {
		return remap.NewStage(r.Engine, r.Mappings, logger).Run(ctx, remap.Input{
			Merged:       set.Merged,
			Named:        set.Named,
			Intermediary: set.Intermediary,
			Refresh:      cfg.Refresh,
		})
	})
	if err != nil {
		return nil, err
	}

	result.Stats.TotalTime = time.Since(start)
	logger.Info("published",
		"coordinate", result.Coordinate(),
		"duration", result.Stats.TotalTime)

	return result, nil
}

// stage runs fn between the pipeline hooks and names the stage in any error.
func (r *Runner) stage(ctx context.Context, name, version string, fn func(context.Context) (bool, error)) (bool, time.Duration, error) {
	hooks := observability.Pipeline()
	start := time.Now()
	ctx = hooks.OnStageStart(ctx, name, version)

	cached, err := fn(ctx)
	duration := time.Since(start)
	hooks.OnStageComplete(ctx, name, version, cached, duration, err)

	if err != nil {
		return cached, duration, fmt.Errorf("%s: %w", name, err)
	}
	return cached, duration, nil
}

func (r *Runner) validate(version string) error {
	if r.Mappings == nil {
		return errors.New(errors.ErrCodeConfiguration, "no mapping provider configured")
	}
	if r.Layout.Root == "" {
		return errors.New(errors.ErrCodeConfiguration, "no cache directory configured")
	}

	id := r.Mappings.Identity()
	checks := []error{
		errors.ValidateVersion(version),
		errors.ValidateName("artifact name", r.Layout.Name),
		errors.ValidateName("mapping name", id.Name),
		errors.ValidateName("mapping version", id.Version),
	}
	for _, err := range checks {
		if err != nil {
			return errors.Wrap(errors.ErrCodeConfiguration, err, "invalid run input")
		}
	}
	return nil
}

// Package pipeline runs the jarmill artifact pipeline.
//
// # Architecture
//
// A run moves through four states, strictly in order:
//
//  1. Acquire: make sure the raw client and server jars are on disk
//  2. Merge: combine them into one merged jar
//  3. Remap: rewrite the merged jar into the named and intermediary namespaces
//  4. Published: the remapped jars are ready for consumers
//
// Every stage memoizes its output at a deterministic path from the
// [artifact.Layout]. A stage whose outputs exist is skipped unless the run is
// a refresh, and a stage that fails cleans up after itself so a re-run
// starts from a consistent cache. Nothing is retried automatically.
//
// # Usage
//
//	runner := pipeline.NewRunner(layout, provider, fetcher, logger)
//	result, err := runner.Execute(ctx, "7.0", pipeline.Config{RootProject: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.NamedPath())
package pipeline

import (
	"time"

	"github.com/matzehuels/jarmill/pkg/artifact"
)

// Stage names, as reported to hooks and in wrapped errors.
const (
	StageAcquire = "acquire"
	StageMerge   = "merge"
	StageRemap   = "remap"
)

// Config holds the per-run flags.
type Config struct {
	// Offline forbids network access; missing raw jars become an error.
	Offline bool `json:"offline,omitempty"`

	// Refresh forces every stage to recompute.
	Refresh bool `json:"refresh,omitempty"`

	// ShareCaches lets non-root projects reuse raw jars without revalidation.
	ShareCaches bool `json:"share_caches,omitempty"`

	// RootProject marks the top-level project of a multi-project build.
	RootProject bool `json:"root_project,omitempty"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs and traces.
	RunID string

	// Version is the requested game version.
	Version string

	// Mapping is the mapping set the run remapped with.
	Mapping artifact.MappingIdentity

	// Artifacts holds every file the run produced or reused.
	Artifacts artifact.Set

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages were served from disk.
	CacheInfo CacheInfo

	name string
}

// Stats contains pipeline execution statistics.
type Stats struct {
	AcquireTime time.Duration
	MergeTime   time.Duration
	RemapTime   time.Duration
	TotalTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	AcquireSkipped bool // No fetch was issued
	MergeSkipped   bool // Offline run continued from an existing merged jar
	MergeHit       bool // Existing merged jar was reused
	RemapHit       bool // Both remapped jars were reused
}

// MergedPath returns the merged jar.
func (r *Result) MergedPath() string { return r.Artifacts.Merged.Path }

// NamedPath returns the jar remapped to the named namespace.
func (r *Result) NamedPath() string { return r.Artifacts.Named.Path }

// IntermediaryPath returns the jar remapped to the intermediary namespace.
func (r *Result) IntermediaryPath() string { return r.Artifacts.Intermediary.Path }

// ResolvedVersion returns the game version the artifacts were built for.
func (r *Result) ResolvedVersion() string { return r.Version }

// Coordinate returns the dependency coordinate under which the named jar is
// published, e.g. "mindustry:mindustry:7.0-mapped-official-1".
func (r *Result) Coordinate() string {
	return r.name + ":" + r.name + ":" + artifact.VersionString(r.Version, artifact.KindMapped, r.Mapping)
}

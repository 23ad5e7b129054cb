// Package remap rewrites the merged jar into the named and intermediary
// namespaces.
//
// The [Stage] treats its two outputs as a pair: either both are produced, or
// neither is left on disk. Any failure also invalidates the mapping
// provider's cached table so a corrupted derivative cannot poison the next
// run.
package remap

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/errors"
	"github.com/matzehuels/jarmill/pkg/mappings"
)

// Namespaces used by the stage.
const (
	NamespaceOfficial     = "official"
	NamespaceNamed        = "named"
	NamespaceIntermediary = "intermediary"
)

// JSRToJetbrains rewrites JSR-305 nullability annotations to their JetBrains
// equivalents on every remap.
var JSRToJetbrains = map[string]string{
	"javax/annotation/Nullable":             "org/jetbrains/annotations/Nullable",
	"javax/annotation/Nonnull":              "org/jetbrains/annotations/NotNull",
	"javax/annotation/concurrent/Immutable": "org/jetbrains/annotations/Unmodifiable",
}

// Options configure one remap invocation.
type Options struct {
	From string
	To   string

	// Extra is applied to names the mapping table does not cover.
	Extra map[string]string

	NonClassFiles          bool
	RenameInvalidLocals    bool
	RebuildSourceFilenames bool
}

// Engine opens remap sessions.
type Engine interface {
	Open(table *mappings.Table, opts Options) (Session, error)
}

// Session performs a single remap. Finish must be called once the session is
// no longer needed, whether or not Apply succeeded.
type Session interface {
	Apply(ctx context.Context, input, output string) error
	Finish() error
}

// Input is everything the stage needs for one run.
type Input struct {
	Merged       artifact.Handle
	Named        artifact.Handle
	Intermediary artifact.Handle
	Refresh      bool
}

// Stage is the remap stage.
type Stage struct {
	Engine   Engine
	Mappings mappings.Provider
	Logger   *log.Logger
}

// NewStage creates a remap stage. A nil engine uses [ClassEngine].
func NewStage(e Engine, m mappings.Provider, logger *log.Logger) *Stage {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if e == nil {
		e = &ClassEngine{}
	}
	return &Stage{Engine: e, Mappings: m, Logger: logger}
}

// Run produces Named and Intermediary from Merged unless both already exist
// and in.Refresh is unset. hit is true when nothing was recomputed.
func (s *Stage) Run(ctx context.Context, in Input) (hit bool, err error) {
	if s.Mappings == nil || !s.Mappings.Exists() {
		path := ""
		if s.Mappings != nil {
			path = s.Mappings.Path()
		}
		return false, errors.New(errors.ErrCodeConfiguration, "mappings file not found: %s", path)
	}
	if !in.Merged.Exists() {
		return false, errors.New(errors.ErrCodeConfiguration, "input merged jar not found: %s", in.Merged.Path)
	}

	if in.Named.Exists() && in.Intermediary.Exists() && !in.Refresh {
		s.Logger.Debug("remapped jars up-to-date", "named", in.Named.Path, "intermediary", in.Intermediary.Path)
		return true, nil
	}

	s.Logger.Info(":remapping (official -> named)", "mappings", s.Mappings.Identity())

	if err := s.deleteOutputs(in); err != nil {
		return false, errors.Wrap(errors.ErrCodeIO, err, "clear remap outputs")
	}
	if err := os.MkdirAll(in.Named.Dir(), 0o755); err != nil {
		return false, errors.Wrap(errors.ErrCodeIO, err, "create %s", in.Named.Dir())
	}

	if err := s.remapAll(ctx, in); err != nil {
		return false, s.fail(in, errors.Wrap(errors.ErrCodeTransformFailed, err,
			"failed to remap jar %s with mappings from %s", in.Merged.Path, s.Mappings.Path()))
	}

	if !in.Named.Exists() {
		return false, s.fail(in, errors.New(errors.ErrCodeTransformFailed, "mapped jar not found: %s", in.Named.Path))
	}
	return false, nil
}

// fail removes both outputs and drops the loaded mappings before returning err.
func (s *Stage) fail(in Input, err error) error {
	if derr := s.deleteOutputs(in); derr != nil {
		s.Logger.Warn("could not remove partial remap output", "err", derr)
	}
	s.Mappings.Invalidate()
	return err
}

func (s *Stage) remapAll(ctx context.Context, in Input) error {
	table, err := s.Mappings.Table(ctx)
	if err != nil {
		return err
	}

	targets := []struct {
		to  string
		out artifact.Handle
	}{
		{NamespaceNamed, in.Named},
		{NamespaceIntermediary, in.Intermediary},
	}
	for _, t := range targets {
		opts := Options{
			From:                   NamespaceOfficial,
			To:                     t.to,
			Extra:                  JSRToJetbrains,
			NonClassFiles:          true,
			RenameInvalidLocals:    true,
			RebuildSourceFilenames: true,
		}
		if err := s.invoke(ctx, table, opts, in.Merged.Path, t.out.Path); err != nil {
			return err
		}
		s.Logger.Debug("remapped", "to", t.to, "output", t.out.Path)
	}
	return nil
}

func (s *Stage) invoke(ctx context.Context, table *mappings.Table, opts Options, input, output string) (err error) {
	sess, err := s.Engine.Open(table, opts)
	if err != nil {
		return err
	}
	defer func() {
		if ferr := sess.Finish(); ferr != nil && err == nil {
			err = ferr
		}
	}()
	return sess.Apply(ctx, input, output)
}

func (s *Stage) deleteOutputs(in Input) error {
	if err := in.Named.Delete(); err != nil {
		return err
	}
	return in.Intermediary.Delete()
}

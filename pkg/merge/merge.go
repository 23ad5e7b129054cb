// Package merge combines the raw client and server jars into one merged jar.
//
// [Stage] owns the cache policy: the merged jar is rebuilt only when it is
// missing or a refresh is forced. If the [Merger] reports a corrupt archive,
// the raw jars are treated as the culprit and deleted so the next run
// downloads them again.
package merge

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/errors"
)

// Merger writes the union of client and server to output. Corrupt inputs
// must be reported with errors.ErrCodeCorruptArchive.
type Merger interface {
	Merge(ctx context.Context, client, server, output string) error
}

// Input is everything the stage needs for one run.
type Input struct {
	Client  artifact.Handle
	Server  artifact.Handle
	Merged  artifact.Handle
	Refresh bool
}

// Stage is the merge stage.
type Stage struct {
	Merger Merger
	Logger *log.Logger
}

// NewStage creates a merge stage. A nil merger uses [ZipMerger]; a nil
// logger discards output.
func NewStage(m Merger, logger *log.Logger) *Stage {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if m == nil {
		m = &ZipMerger{Logger: logger}
	}
	return &Stage{Merger: m, Logger: logger}
}

// Run rebuilds the merged jar if it is missing or in.Refresh is set.
// hit is true when the existing merged jar was reused.
func (s *Stage) Run(ctx context.Context, in Input) (hit bool, err error) {
	if in.Merged.Exists() && !in.Refresh {
		s.Logger.Debug("merged jar up-to-date", "path", in.Merged.Path)
		return true, nil
	}

	s.Logger.Info(":merging jars")

	err = s.Merger.Merge(ctx, in.Client.Path, in.Server.Path, in.Merged.Path)
	if err == nil {
		return false, nil
	}

	// Whatever the merger managed to write is not a valid merged jar.
	if derr := in.Merged.Delete(); derr != nil {
		s.Logger.Warn("could not remove partial merged jar", "path", in.Merged.Path, "err", derr)
	}

	if errors.Is(err, errors.ErrCodeCorruptArchive) {
		for _, h := range []artifact.Handle{in.Client, in.Server} {
			if derr := h.Delete(); derr != nil {
				s.Logger.Warn("could not delete raw jar", "path", h.Path, "err", derr)
			}
		}
		s.Logger.Error("Could not merge JARs! Deleting source JARs - please re-run the command and move on.", "err", err)
		return false, errors.New(errors.ErrCodeCorruptArchive,
			"corrupt input jar(s) %s, %s were deleted; re-run to download them again",
			in.Client.Path, in.Server.Path)
	}

	if errors.GetCode(err) != "" {
		return false, err
	}
	return false, errors.Wrap(errors.ErrCodeIO, err, "merge %s + %s into %s", in.Client.Path, in.Server.Path, in.Merged.Path)
}

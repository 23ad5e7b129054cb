// Package acquire decides whether the raw client and server jars need to be
// fetched, and fetches them when they do.
//
// The actual download (manifest lookup, checksum verification, streaming to
// disk) lives behind [Fetcher]; this package only owns the decision.
package acquire

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/errors"
)

// Fetcher downloads one raw jar for a version to dest, verifying its
// checksum. Implementations must not leave a partial file at dest.
type Fetcher interface {
	Fetch(ctx context.Context, version string, kind artifact.Kind, dest string) error
}

// Config carries the run flags the stage reads.
type Config struct {
	Offline     bool
	ShareCaches bool
	RootProject bool
	Refresh     bool
}

// Input is everything the stage needs for one run.
type Input struct {
	Version string
	Client  artifact.Handle
	Server  artifact.Handle
	Merged  artifact.Handle
	Config  Config
}

// Result reports what the stage did.
type Result struct {
	// Fetched is true when the Fetcher was invoked.
	Fetched bool

	// SkipMerge is true in offline mode when the raw jars are missing but a
	// merged jar is already present; the merge stage must be bypassed.
	SkipMerge bool

	// Reason is a short description of the decision, for logs.
	Reason string
}

// Stage is the acquisition stage.
type Stage struct {
	Fetcher Fetcher
	Logger  *log.Logger
}

// NewStage creates an acquisition stage. A nil logger discards output.
func NewStage(f Fetcher, logger *log.Logger) *Stage {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Stage{Fetcher: f, Logger: logger}
}

// Run ensures both raw jars are present, or that the pipeline can proceed
// from an existing merged jar in offline mode.
func (s *Stage) Run(ctx context.Context, in Input) (Result, error) {
	if in.Config.Offline {
		return s.offline(in)
	}

	if in.Config.ShareCaches && !in.Config.RootProject &&
		in.Client.Exists() && in.Server.Exists() && !in.Config.Refresh {
		s.Logger.Debug("using shared cache", "client", in.Client.Path, "server", in.Server.Path)
		return Result{Reason: "shared cache"}, nil
	}

	if s.Fetcher == nil {
		return Result{}, errors.New(errors.ErrCodeConfiguration,
			"no fetcher configured; place %s and %s manually or run offline", in.Client.Path, in.Server.Path)
	}

	s.Logger.Info(":downloading jars", "version", in.Version)

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range []artifact.Handle{in.Client, in.Server} {
		g.Go(func() error {
			return s.Fetcher.Fetch(gctx, in.Version, h.Kind, h.Path)
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Fetched: true}, err
	}
	return Result{Fetched: true, Reason: "fetched"}, nil
}

func (s *Stage) offline(in Input) (Result, error) {
	clientOK, serverOK := in.Client.Exists(), in.Server.Exists()

	switch {
	case clientOK && serverOK:
		s.Logger.Debug("Found client and server jars, presuming up-to-date")
		return Result{Reason: "offline, raw jars present"}, nil

	case in.Merged.Exists():
		// The split jars are only needed to build the merged one.
		s.Logger.Warn("Missing game jar but merged jar present, things might end badly",
			"client", clientOK, "server", serverOK, "merged", in.Merged.Path)
		return Result{SkipMerge: true, Reason: "offline, merged jar only"}, nil

	default:
		var missing []string
		for _, h := range []artifact.Handle{in.Client, in.Server} {
			if !h.Exists() {
				missing = append(missing, fmt.Sprintf("%s (%s)", h.Kind, h.Path))
			}
		}
		return Result{}, errors.New(errors.ErrCodeMissingInput,
			"missing jar(s) in offline mode; client: %t, server: %t; missing: %s",
			clientOK, serverOK, strings.Join(missing, ", "))
	}
}

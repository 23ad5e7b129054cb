// Package cli implements the jarmill command-line interface.
//
// The commands are built with cobra and share one [CLI] value that owns the
// logger, the loaded configuration and anything that must be closed on exit.
//
// # Commands
//
//   - run (also the root command): acquire, merge and remap a game version
//   - paths: show the artifact paths for a version
//   - cache: clear or locate the manifest and artifact caches
//   - config: show, create or locate the config file
//
// # Logging
//
// Pipeline progress is logged to stderr with charmbracelet/log. The level
// comes from the config file (log.level) unless --verbose (-v) is given.
// Results are printed to stdout.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Pipeline complete (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// Package cli implements the jarmill command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jarmill/pkg/acquire"
	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/buildinfo"
	"github.com/matzehuels/jarmill/pkg/cache"
	"github.com/matzehuels/jarmill/pkg/config"
	"github.com/matzehuels/jarmill/pkg/fetch"
	"github.com/matzehuels/jarmill/pkg/httputil"
	"github.com/matzehuels/jarmill/pkg/mappings"
	"github.com/matzehuels/jarmill/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "jarmill"

	// manifestDir is the manifest cache directory below the cache root.
	manifestDir = "manifest"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	trace      bool
	levelSet   bool

	cfg     *config.Config
	closers []func(context.Context) error
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. An explicit level wins over the
// one in the config file.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	c.levelSet = true
}

// RootCommand creates the root cobra command with all subcommands registered.
// Running the root command without a subcommand runs the pipeline.
func (c *CLI) RootCommand() *cobra.Command {
	run := c.runCommand()

	root := &cobra.Command{
		Use:   appName + " [version]",
		Short: "jarmill fetches, merges and remaps game jars",
		Long: `jarmill prepares a game version for development: it downloads the client
and server jars, merges them into one archive and remaps that archive to
human-readable (named) and stable (intermediary) names. Every step is cached
on disk and skipped when its output is already present.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		Args:         run.Args,
		RunE:         run.RunE,
	}
	root.Flags().AddFlagSet(run.Flags())

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./jarmill.toml, then the user config directory)")
	root.PersistentFlags().BoolVar(&c.trace, "trace", false, "print OpenTelemetry spans to stderr")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if c.trace {
			return c.setupTelemetry()
		}
		return nil
	}

	root.AddCommand(run)
	root.AddCommand(c.pathsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Close releases resources opened by commands (manifest cache connections,
// trace exporters). It is safe to call more than once.
func (c *CLI) Close(ctx context.Context) error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// =============================================================================
// Config
// =============================================================================

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if !c.levelSet {
		c.Logger.SetLevel(cfg.LogLevel())
	}
	c.cfg = cfg
	return cfg, nil
}

// cacheRoot returns the configured cache directory, falling back to the
// XDG cache directory.
func cacheRoot(cfg *config.Config) (string, error) {
	if cfg.CacheDir != "" {
		return cfg.CacheDir, nil
	}
	return cacheDir()
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, error) {
	layout, err := newLayout(cfg)
	if err != nil {
		return nil, err
	}

	var fetcher acquire.Fetcher
	if !cfg.Offline && cfg.Manifest.URL != "" {
		f, err := c.newFetcher(ctx, cfg, layout.Root)
		if err != nil {
			return nil, err
		}
		fetcher = f
	} else if !cfg.Offline {
		c.Logger.Debug("no manifest url configured, raw jars must be placed manually", "dir", layout.Root)
	}

	return pipeline.NewRunner(layout, newProvider(cfg), fetcher, c.Logger), nil
}

func newLayout(cfg *config.Config) (artifact.Layout, error) {
	root, err := cacheRoot(cfg)
	if err != nil {
		return artifact.Layout{}, fmt.Errorf("get cache dir: %w", err)
	}
	return artifact.Layout{Root: root, Name: cfg.Name}, nil
}

func newProvider(cfg *config.Config) *mappings.FileProvider {
	return mappings.NewFileProvider(cfg.Mappings.Path, artifact.MappingIdentity{
		Name:    cfg.Mappings.Name,
		Version: cfg.Mappings.Version,
	})
}

func (c *CLI) newFetcher(ctx context.Context, cfg *config.Config, root string) (*fetch.HTTPFetcher, error) {
	store := c.newManifestCache(ctx, cfg, root)

	keyer := cache.NewDefaultKeyer()
	if !cfg.ShareCaches {
		keyer = cache.NewScopedKeyer(keyer, projectScope())
	}

	return fetch.New(fetch.Options{
		ManifestURL: cfg.Manifest.URL,
		Cache:       store,
		Keyer:       keyer,
		TTL:         cfg.Manifest.TTL.Std(),
		Refresh:     cfg.Refresh,
		Client:      httputil.NewClient(cfg.Manifest.Timeout.Std()),
		Attempts:    cfg.Manifest.Attempts,
		Logger:      c.Logger,
	})
}

// newManifestCache opens the backend selected by manifest.cache. A backend
// that cannot be opened degrades to no caching.
func (c *CLI) newManifestCache(ctx context.Context, cfg *config.Config, root string) cache.Cache {
	var (
		store cache.Cache
		err   error
	)
	switch cfg.Manifest.Cache {
	case config.CacheNone:
		return cache.NewNullCache()
	case config.CacheRedis:
		store, err = cache.NewRedisCache(ctx, cfg.Manifest.RedisURL)
	default:
		store, err = cache.NewFileCache(filepath.Join(root, manifestDir))
	}
	if err != nil {
		c.Logger.Warn("manifest cache unavailable, continuing without it", "backend", cfg.Manifest.Cache, "err", err)
		return cache.NewNullCache()
	}
	c.closers = append(c.closers, func(context.Context) error { return store.Close() })
	return store
}

// projectScope keys manifest cache entries by working directory.
func projectScope() string {
	wd, err := os.Getwd()
	if err != nil {
		return "project:unknown:"
	}
	return "project:" + cache.Hash([]byte(wd))[:12] + ":"
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/jarmill/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Package config loads jarmill settings.
//
// Settings come from three layers, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (jarmill.toml in the working directory or the user config
//     directory, or an explicit path)
//  3. JARMILL_* environment variables, e.g. JARMILL_OFFLINE=true,
//     JARMILL_CACHE_DIR=/tmp/jars, JARMILL_MANIFEST_URL=https://...
//
// Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/jarmill/pkg/errors"
)

// Manifest cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Duration accepts Go duration strings ("30s", "24h") or plain seconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = 0
		return nil
	}
	if v, err := time.ParseDuration(raw); err == nil {
		*d = Duration(v)
		return nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration %q", raw)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full jarmill configuration.
type Config struct {
	// Name is the artifact base name used in jar file names.
	Name string `mapstructure:"name" toml:"name"`

	// Version is the default game version when none is given on the command line.
	Version string `mapstructure:"version" toml:"version,omitempty"`

	// CacheDir is the artifact cache root. Empty means the user cache directory.
	CacheDir string `mapstructure:"cache_dir" toml:"cache_dir,omitempty"`

	Offline     bool `mapstructure:"offline" toml:"offline"`
	Refresh     bool `mapstructure:"refresh" toml:"refresh"`
	ShareCaches bool `mapstructure:"share_caches" toml:"share_caches"`
	RootProject bool `mapstructure:"root_project" toml:"root_project"`

	Mappings MappingsConfig `mapstructure:"mappings" toml:"mappings"`
	Manifest ManifestConfig `mapstructure:"manifest" toml:"manifest"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
}

// MappingsConfig selects the mapping set.
type MappingsConfig struct {
	Path    string `mapstructure:"path" toml:"path"`
	Name    string `mapstructure:"name" toml:"name"`
	Version string `mapstructure:"version" toml:"version"`
}

// ManifestConfig describes where raw jars are downloaded from.
type ManifestConfig struct {
	URL      string   `mapstructure:"url" toml:"url,omitempty"`
	Cache    string   `mapstructure:"cache" toml:"cache"`
	RedisURL string   `mapstructure:"redis_url" toml:"redis_url,omitempty"`
	TTL      Duration `mapstructure:"ttl" toml:"ttl"`
	Timeout  Duration `mapstructure:"timeout" toml:"timeout"`
	Attempts int      `mapstructure:"attempts" toml:"attempts"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Name:        "mindustry",
		RootProject: true,
		Mappings: MappingsConfig{
			Path:    "mappings.tiny",
			Name:    "official",
			Version: "1",
		},
		Manifest: ManifestConfig{
			Cache:    CacheFile,
			TTL:      Duration(24 * time.Hour),
			Timeout:  Duration(5 * time.Minute),
			Attempts: 3,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks the configuration for values that would make a run fail
// late or write outside the cache.
func (c *Config) Validate() error {
	if err := errors.ValidateName("name", c.Name); err != nil {
		return wrapField("name", err)
	}
	if c.Version != "" {
		if err := errors.ValidateVersion(c.Version); err != nil {
			return wrapField("version", err)
		}
	}
	if err := errors.ValidateName("mapping name", c.Mappings.Name); err != nil {
		return wrapField("mappings.name", err)
	}
	if err := errors.ValidateName("mapping version", c.Mappings.Version); err != nil {
		return wrapField("mappings.version", err)
	}
	if c.Mappings.Path == "" {
		return errors.New(errors.ErrCodeConfiguration, "mappings.path: must be set")
	}

	switch c.Manifest.Cache {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Manifest.RedisURL == "" {
			return errors.New(errors.ErrCodeConfiguration, "manifest.redis_url: required when manifest.cache = %q", CacheRedis)
		}
	default:
		return errors.New(errors.ErrCodeConfiguration, "manifest.cache: must be one of file, redis, none (got %q)", c.Manifest.Cache)
	}
	if c.Manifest.URL != "" {
		if err := errors.ValidateURL(c.Manifest.URL); err != nil {
			return wrapField("manifest.url", err)
		}
	}
	if c.Manifest.TTL < 0 || c.Manifest.Timeout < 0 || c.Manifest.Attempts < 0 {
		return errors.New(errors.ErrCodeConfiguration, "manifest: ttl, timeout and attempts must not be negative")
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return wrapField("log.level", err)
	}
	return nil
}

// LogLevel returns the configured log level, or info if it does not parse.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func wrapField(field string, err error) error {
	return errors.Wrap(errors.ErrCodeConfiguration, err, "%s", field)
}

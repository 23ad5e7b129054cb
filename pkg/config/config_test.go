package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jarmill/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jarmill.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
name = "mindustry"
version = "146"
cache_dir = "/tmp/jarmill-test"
share_caches = true
root_project = false

[mappings]
path = "yarn.tiny"
name = "yarn"
version = "7"

[manifest]
url = "https://example.com/versions.json"
cache = "none"
ttl = "2h"
timeout = 90

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Version != "146" || cfg.CacheDir != "/tmp/jarmill-test" {
		t.Errorf("top-level = %+v", cfg)
	}
	if !cfg.ShareCaches || cfg.RootProject {
		t.Errorf("share/root = %v/%v", cfg.ShareCaches, cfg.RootProject)
	}
	if cfg.Mappings != (MappingsConfig{Path: "yarn.tiny", Name: "yarn", Version: "7"}) {
		t.Errorf("mappings = %+v", cfg.Mappings)
	}
	if cfg.Manifest.Cache != CacheNone || cfg.Manifest.TTL.Std() != 2*time.Hour {
		t.Errorf("manifest = %+v", cfg.Manifest)
	}
	if cfg.Manifest.Timeout.Std() != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", cfg.Manifest.Timeout.Std())
	}
	if cfg.Manifest.Attempts != 3 {
		t.Errorf("attempts default = %d, want 3", cfg.Manifest.Attempts)
	}
	if cfg.LogLevel() != log.DebugLevel {
		t.Errorf("log level = %v", cfg.LogLevel())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "offline = false\n")
	t.Setenv("JARMILL_OFFLINE", "true")
	t.Setenv("JARMILL_REFRESH", "true")
	t.Setenv("JARMILL_CACHE_DIR", "/var/cache/jars")
	t.Setenv("JARMILL_MANIFEST_URL", "https://mirror.example.com/v.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Offline || !cfg.Refresh {
		t.Errorf("offline/refresh = %v/%v, want env overrides", cfg.Offline, cfg.Refresh)
	}
	if cfg.CacheDir != "/var/cache/jars" {
		t.Errorf("cache dir = %q", cfg.CacheDir)
	}
	if cfg.Manifest.URL != "https://mirror.example.com/v.json" {
		t.Errorf("manifest url = %q", cfg.Manifest.URL)
	}
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "jarmill.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Version != "7.0" || cfg.Manifest.Cache != CacheFile {
		t.Errorf("example config = %+v", cfg)
	}
	if cfg.Manifest.TTL.Std() != 24*time.Hour || cfg.Manifest.Timeout.Std() != 5*time.Minute {
		t.Errorf("durations = %v, %v", cfg.Manifest.TTL.Std(), cfg.Manifest.Timeout.Std())
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if errors.GetCode(err) != errors.ErrCodeConfiguration {
		t.Fatalf("err = %v, want CONFIGURATION", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "mindustry" || cfg.Mappings.Name != "official" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadDiscoversSameFileAsPath(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	// Only jarmill.toml is a config file; other extensions are ignored.
	if err := os.WriteFile("jarmill.yaml", []byte("name: yaml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Path(); got != "" {
		t.Fatalf("Path() = %q, want none", got)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "mindustry" {
		t.Errorf("name = %q, yaml file should be ignored", cfg.Name)
	}

	if err := os.WriteFile("jarmill.toml", []byte("name = \"game\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Path(); got != "jarmill.toml" {
		t.Fatalf("Path() = %q, want jarmill.toml", got)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "game" {
		t.Errorf("name = %q, want game from jarmill.toml", cfg.Name)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad duration", "[manifest]\nttl = \"boom\"\n"},
		{"bad cache", "[manifest]\ncache = \"memcached\"\n"},
		{"redis without url", "[manifest]\ncache = \"redis\"\n"},
		{"bad url", "[manifest]\nurl = \"ftp://x\"\n"},
		{"traversal name", "name = \"../etc\"\n"},
		{"bad mapping version", "[mappings]\nversion = \"a/b\"\n"},
		{"bad version", "version = \"7 0\"\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"bad toml", "name = \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Manifest.URL = "https://example.com/versions.json"

	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `ttl = "24h0m0s"`) {
		t.Errorf("encoded config missing ttl:\n%s", buf.String())
	}

	loaded, err := Load(writeConfig(t, buf.String()))
	if err != nil {
		t.Fatalf("Load(encoded): %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{"", 0, false},
		{"30s", 30 * time.Second, false},
		{"45", 45 * time.Second, false},
		{"1h30m", 90 * time.Minute, false},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		var d Duration
		err := d.UnmarshalText([]byte(tt.in))
		if (err != nil) != tt.err {
			t.Errorf("UnmarshalText(%q) err = %v", tt.in, err)
			continue
		}
		if d.Std() != tt.want {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.in, d.Std(), tt.want)
		}
	}
}

// Package fetch downloads raw game jars described by a version manifest.
//
// [HTTPFetcher] implements acquire.Fetcher. The manifest is resolved once
// per process, shared between concurrent fetches and stored in a
// [cache.Cache] so later runs skip the round trip. Jars whose SHA-1 already
// matches the manifest are left alone; everything else is streamed into a
// temp file, verified and renamed into place.
package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/jarmill/pkg/acquire"
	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/cache"
	"github.com/matzehuels/jarmill/pkg/errors"
	"github.com/matzehuels/jarmill/pkg/httputil"
	"github.com/matzehuels/jarmill/pkg/observability"
)

// Options configure an [HTTPFetcher].
type Options struct {
	// ManifestURL is the version manifest location (required).
	ManifestURL string

	// Cache stores the manifest. Nil disables caching.
	Cache cache.Cache
	Keyer cache.Keyer
	TTL   time.Duration

	// Refresh ignores the cached manifest and re-verifies every jar.
	Refresh bool

	Client   *httputil.Client
	Attempts int
	Delay    time.Duration
	Logger   *log.Logger
}

// HTTPFetcher downloads jars over HTTP.
type HTTPFetcher struct {
	opts  Options
	group singleflight.Group

	mu       sync.Mutex
	manifest *Manifest
}

// New creates an HTTPFetcher, filling in defaults for unset options.
func New(opts Options) (*HTTPFetcher, error) {
	if err := errors.ValidateURL(opts.ManifestURL); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "manifest url")
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.TTL == 0 {
		opts.TTL = cache.TTLManifest
	}
	if opts.Client == nil {
		opts.Client = httputil.NewClient(0)
	}
	if opts.Attempts <= 0 {
		opts.Attempts = httputil.DefaultAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = httputil.DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &HTTPFetcher{opts: opts}, nil
}

// Fetch makes dest hold the verified jar for version and kind.
func (f *HTTPFetcher) Fetch(ctx context.Context, version string, kind artifact.Kind, dest string) error {
	m, err := f.Manifest(ctx)
	if err != nil {
		return err
	}
	d, err := m.Lookup(version, kind)
	if err != nil {
		return err
	}

	if d.SHA1 != "" {
		if sum, err := fileSHA1(dest); err == nil && strings.EqualFold(sum, d.SHA1) {
			f.opts.Logger.Debug("jar up-to-date", "kind", kind, "path", dest)
			return nil
		}
	}

	f.opts.Logger.Info("downloading", "kind", kind, "version", version, "url", d.URL)
	return httputil.Retry(ctx, f.opts.Attempts, f.opts.Delay, func() error {
		return f.download(ctx, d, dest)
	})
}

func (f *HTTPFetcher) download(ctx context.Context, d Download, dest string) error {
	body, err := f.opts.Client.Get(ctx, d.URL)
	if err != nil {
		return err
	}
	defer body.Close()

	return artifact.WriteFile(dest, func(w io.Writer) error {
		h := sha1.New()
		n, err := io.Copy(io.MultiWriter(w, h), body)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "download %s", d.URL)}
		}
		if d.Size > 0 && n != d.Size {
			return &httputil.RetryableError{Err: errors.New(errors.ErrCodeChecksumMismatch,
				"download %s: got %d bytes, want %d", d.URL, n, d.Size)}
		}
		if sum := hex.EncodeToString(h.Sum(nil)); d.SHA1 != "" && !strings.EqualFold(sum, d.SHA1) {
			return &httputil.RetryableError{Err: errors.New(errors.ErrCodeChecksumMismatch,
				"download %s: sha1 %s, want %s", d.URL, sum, d.SHA1)}
		}
		return nil
	})
}

// Manifest returns the version manifest, loading it at most once per
// fetcher.
func (f *HTTPFetcher) Manifest(ctx context.Context) (*Manifest, error) {
	f.mu.Lock()
	m := f.manifest
	f.mu.Unlock()
	if m != nil {
		return m, nil
	}

	v, err, _ := f.group.Do(f.opts.ManifestURL, func() (any, error) {
		m, err := f.loadManifest(ctx)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.manifest = m
		f.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Manifest), nil
}

func (f *HTTPFetcher) loadManifest(ctx context.Context) (*Manifest, error) {
	key := f.opts.Keyer.ManifestKey(f.opts.ManifestURL)
	hooks := observability.Cache()

	if !f.opts.Refresh {
		data, hit, err := f.opts.Cache.Get(ctx, key)
		if err != nil {
			f.opts.Logger.Warn("manifest cache read failed", "err", err)
		}
		if hit {
			if m, err := ParseManifest(data); err == nil {
				hooks.OnCacheHit(ctx, "manifest")
				f.opts.Logger.Debug("manifest from cache", "url", f.opts.ManifestURL)
				return m, nil
			}
			_ = f.opts.Cache.Delete(ctx, key)
		}
		hooks.OnCacheMiss(ctx, "manifest")
	}

	var data []byte
	err := httputil.Retry(ctx, f.opts.Attempts, f.opts.Delay, func() error {
		body, err := f.opts.Client.Get(ctx, f.opts.ManifestURL)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err = io.ReadAll(body)
		if err != nil {
			return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read manifest")}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if err := f.opts.Cache.Set(ctx, key, data, f.opts.TTL); err != nil {
		f.opts.Logger.Warn("manifest cache write failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, "manifest", len(data))
	}
	return m, nil
}

func fileSHA1(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	h := sha1.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

var _ acquire.Fetcher = (*HTTPFetcher)(nil)

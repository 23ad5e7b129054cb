// Package cache provides key/value caches for small pipeline metadata, chiefly
// the version manifest the fetcher resolves download URLs from.
//
// Jars themselves are not stored here: they live at deterministic paths
// resolved by the artifact package. This cache only saves a network round
// trip when the same manifest is needed by several runs or projects.
//
// Backends:
//   - [FileCache]: JSON entries under a local directory (CLI default)
//   - [RedisCache]: a shared Redis instance, for build farms sharing caches
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// TTLManifest is how long a resolved version manifest stays fresh.
const TTLManifest = 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the cached value. hit is false on a miss or expired entry.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

package cache

// ScopedKeyer wraps a Keyer with a prefix so projects that opt out of cache
// sharing get their own manifest entries.
//
// Example usage:
//
//	// Per-project keys when share_caches is off
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "project:core:")
//
//	// Shared keys across projects
//	keyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ManifestKey generates a prefixed key for manifest caching.
func (k *ScopedKeyer) ManifestKey(url string) string {
	return k.prefix + k.inner.ManifestKey(url)
}

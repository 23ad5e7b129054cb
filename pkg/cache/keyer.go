package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Keyer builds cache keys.
type Keyer interface {
	// ManifestKey returns the key for the version manifest at url.
	ManifestKey(url string) string
}

// DefaultKeyer keys manifests by the SHA-256 of their URL, so keys have a
// fixed length whatever the URL looks like.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ManifestKey returns "manifest:<sha256(url)>".
func (DefaultKeyer) ManifestKey(url string) string {
	return "manifest:" + Hash([]byte(url))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

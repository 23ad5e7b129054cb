package fetch

import (
	"encoding/json"

	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/errors"
)

// Manifest lists the downloadable jars for every known version.
//
//	{"versions": {"7.0": {"downloads": {"client": {"url": "...", "sha1": "...", "size": 123}}}}}
type Manifest struct {
	Versions map[string]Version `json:"versions"`
}

// Version holds the downloads for one release.
type Version struct {
	Downloads map[string]Download `json:"downloads"`
}

// Download locates one jar.
type Download struct {
	URL  string `json:"url"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// ParseManifest decodes a manifest document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode version manifest")
	}
	if m.Versions == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "version manifest has no versions")
	}
	return &m, nil
}

// Lookup returns the download for a version and raw jar kind.
func (m *Manifest) Lookup(version string, kind artifact.Kind) (Download, error) {
	v, ok := m.Versions[version]
	if !ok {
		return Download{}, errors.New(errors.ErrCodeNotFound, "version %s not in manifest", version)
	}
	d, ok := v.Downloads[string(kind)]
	if !ok || d.URL == "" {
		return Download{}, errors.New(errors.ErrCodeNotFound, "version %s has no %s download", version, kind)
	}
	if err := errors.ValidateURL(d.URL); err != nil {
		return Download{}, err
	}
	return d, nil
}

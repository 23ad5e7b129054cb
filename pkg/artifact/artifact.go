package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Kind tags an artifact within a pipeline run.
type Kind string

const (
	KindClient       Kind = "client"
	KindServer       Kind = "server"
	KindMerged       Kind = "merged"
	KindMapped       Kind = "mapped"
	KindIntermediary Kind = "intermediary"
)

// Remapped reports whether artifacts of this kind are keyed by a mapping set.
func (k Kind) Remapped() bool {
	return k == KindMapped || k == KindIntermediary
}

// MappingIdentity names the mapping table in effect for a remap.
type MappingIdentity struct {
	Name    string
	Version string
}

// String returns "<name>-<version>".
func (m MappingIdentity) String() string {
	return m.Name + "-" + m.Version
}

// VersionString composes the cache key for remapped artifacts:
// "<version>-<kind>-<mappingName>-<mappingVersion>".
func VersionString(version string, kind Kind, m MappingIdentity) string {
	return fmt.Sprintf("%s-%s-%s-%s", version, kind, m.Name, m.Version)
}

// Layout maps artifact coordinates to file paths under Root.
// Name is the artifact base name (e.g. "mindustry").
type Layout struct {
	Root string
	Name string
}

// Path returns the file path for an artifact. The mapping identity is
// ignored for client, server and merged kinds.
func (l Layout) Path(kind Kind, version string, m MappingIdentity) string {
	switch kind {
	case KindMapped:
		key := VersionString(version, kind, m)
		return filepath.Join(l.Root, key, l.Name+"-"+key+".jar")
	case KindIntermediary:
		return filepath.Join(l.Root, l.Name+"-"+VersionString(version, kind, m)+".jar")
	default:
		return filepath.Join(l.Root, fmt.Sprintf("%s-%s-%s.jar", l.Name, version, kind))
	}
}

// Handle returns a Handle for the artifact at Path(kind, version, m).
func (l Layout) Handle(kind Kind, version string, m MappingIdentity) Handle {
	return Handle{Kind: kind, Path: l.Path(kind, version, m)}
}

// Set holds the five artifacts that flow through one pipeline run.
type Set struct {
	Client       Handle
	Server       Handle
	Merged       Handle
	Named        Handle
	Intermediary Handle
}

// Resolve builds the full artifact set for a version and mapping identity.
func (l Layout) Resolve(version string, m MappingIdentity) Set {
	return Set{
		Client:       l.Handle(KindClient, version, m),
		Server:       l.Handle(KindServer, version, m),
		Merged:       l.Handle(KindMerged, version, m),
		Named:        l.Handle(KindMapped, version, m),
		Intermediary: l.Handle(KindIntermediary, version, m),
	}
}

// All returns the handles in pipeline order.
func (s Set) All() []Handle {
	return []Handle{s.Client, s.Server, s.Merged, s.Named, s.Intermediary}
}

// Handle is one on-disk archive.
type Handle struct {
	Kind Kind
	Path string
}

// Exists reports whether a regular file is present at the handle's path.
func (h Handle) Exists() bool {
	info, err := os.Stat(h.Path)
	return err == nil && info.Mode().IsRegular()
}

// Delete removes the backing file. A missing file is not an error.
func (h Handle) Delete() error {
	if err := os.Remove(h.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s jar %s: %w", h.Kind, h.Path, err)
	}
	return nil
}

// Dir returns the directory containing the handle's file.
func (h Handle) Dir() string {
	return filepath.Dir(h.Path)
}

// String returns the path.
func (h Handle) String() string {
	return h.Path
}

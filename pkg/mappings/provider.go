package mappings

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/errors"
)

// Provider supplies the active mapping table to the remap stage.
type Provider interface {
	// Identity names the mapping set; it keys remapped artifact paths.
	Identity() artifact.MappingIdentity

	// Path is the mapping source, used in error messages.
	Path() string

	// Exists reports whether the mapping source is present.
	Exists() bool

	// Table loads (or returns the cached) mapping table.
	Table(ctx context.Context) (*Table, error)

	// Invalidate drops any cached state derived from the mapping source so
	// the next Table call reloads it.
	Invalidate()
}

// FileProvider loads a tiny v2 file from disk.
type FileProvider struct {
	path     string
	identity artifact.MappingIdentity

	group singleflight.Group

	mu    sync.Mutex
	table *Table
}

// NewFileProvider creates a provider for the mapping file at path.
func NewFileProvider(path string, identity artifact.MappingIdentity) *FileProvider {
	return &FileProvider{path: path, identity: identity}
}

func (p *FileProvider) Identity() artifact.MappingIdentity { return p.identity }

func (p *FileProvider) Path() string { return p.path }

func (p *FileProvider) Exists() bool {
	info, err := os.Stat(p.path)
	return err == nil && info.Mode().IsRegular()
}

// Table parses the file once and shares the result between concurrent
// callers.
func (p *FileProvider) Table(ctx context.Context) (*Table, error) {
	p.mu.Lock()
	t := p.table
	p.mu.Unlock()
	if t != nil {
		return t, nil
	}

	v, err, _ := p.group.Do(p.path, func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(p.path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "open mappings %s", p.path)
		}
		defer f.Close()

		t, err := Parse(f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "parse mappings %s", p.path)
		}

		p.mu.Lock()
		p.table = t
		p.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Invalidate forgets the parsed table.
func (p *FileProvider) Invalidate() {
	p.mu.Lock()
	p.table = nil
	p.mu.Unlock()
	p.group.Forget(p.path)
}

var _ Provider = (*FileProvider)(nil)

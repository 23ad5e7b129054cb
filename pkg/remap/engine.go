package remap

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/errors"
	"github.com/matzehuels/jarmill/pkg/mappings"
)

// ClassEngine renames classes inside a jar using the class section of a
// mapping table. It rewrites entry names and class-file constant pools; it
// does not touch method bodies, so RenameInvalidLocals has no effect.
type ClassEngine struct{}

// Open implements [Engine].
func (ClassEngine) Open(table *mappings.Table, opts Options) (Session, error) {
	if table == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "no mapping table")
	}
	classes, err := table.ClassMap(opts.From, opts.To)
	if err != nil {
		return nil, err
	}
	for from, to := range opts.Extra {
		if _, ok := classes[from]; !ok {
			classes[from] = to
		}
	}
	return &classSession{renamer: renamer(classes), opts: opts}, nil
}

type classSession struct {
	renamer renamer
	opts    Options

	mu       sync.Mutex
	finished bool
}

func (s *classSession) Apply(ctx context.Context, input, output string) error {
	s.mu.Lock()
	done := s.finished
	s.mu.Unlock()
	if done {
		return errors.New(errors.ErrCodeInternal, "remap session already finished")
	}

	r, err := zip.OpenReader(input)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCorruptArchive, err, "open %s", input)
	}
	defer r.Close()

	return artifact.WriteFile(output, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, f := range r.File {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.entry(zw, f); err != nil {
				return err
			}
		}
		return zw.Close()
	})
}

func (s *classSession) Finish() error {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	return nil
}

func (s *classSession) entry(zw *zip.Writer, f *zip.File) error {
	isClass := strings.HasSuffix(f.Name, ".class")
	if !isClass && !s.opts.NonClassFiles {
		return nil
	}

	hdr := f.FileHeader
	hdr.Extra = nil
	if strings.HasSuffix(hdr.Name, "/") {
		_, err := zw.CreateHeader(&hdr)
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return errors.Wrap(errors.ErrCodeCorruptArchive, err, "read entry %s", f.Name)
	}
	defer rc.Close()

	if !isClass {
		w, err := zw.CreateHeader(&hdr)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, rc)
		return err
	}

	data, err := io.ReadAll(rc)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCorruptArchive, err, "read entry %s", f.Name)
	}
	out, err := rewriteClass(data, s.renamer, s.opts.RebuildSourceFilenames)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "class %s", f.Name)
	}

	hdr.Name = s.renamer.name(strings.TrimSuffix(f.Name, ".class")) + ".class"
	w, err := zw.CreateHeader(&hdr)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// renamer maps internal class names (slash-separated).
type renamer map[string]string

// name returns the new internal name for class. Inner classes without their
// own mapping inherit the rename of their outer class.
func (r renamer) name(class string) string {
	if to, ok := r[class]; ok {
		return to
	}
	if i := strings.LastIndexByte(class, '$'); i > 0 {
		return r.name(class[:i]) + class[i:]
	}
	return class
}

// descriptor rewrites every L<name>; (or L<name>< in generic signatures)
// reference in a field, method or signature string.
func (r renamer) descriptor(desc string) string {
	var b strings.Builder
	last := 0
	for i := 0; i < len(desc); i++ {
		if desc[i] != 'L' {
			continue
		}
		end := strings.IndexAny(desc[i+1:], ";<")
		if end < 0 {
			break
		}
		end += i + 1
		class := desc[i+1 : end]
		if to := r.name(class); to != class {
			if last == 0 {
				b.Grow(len(desc) + len(to) - len(class))
			}
			b.WriteString(desc[last : i+1])
			b.WriteString(to)
			last = end
		}
		i = end
	}
	if last == 0 {
		return desc
	}
	b.WriteString(desc[last:])
	return b.String()
}

package merge

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/errors"
)

// ZipMerger merges two jars entry by entry.
//
// Entries are written client first, then server. A name present in both is
// written once; when the contents differ the client entry wins and the
// conflict is logged at debug level.
type ZipMerger struct {
	Logger *log.Logger
}

type entrySum struct {
	crc  uint32
	size uint64
}

// Merge implements [Merger].
func (m *ZipMerger) Merge(ctx context.Context, client, server, output string) error {
	cr, err := openArchive(client)
	if err != nil {
		return err
	}
	defer cr.Close()

	sr, err := openArchive(server)
	if err != nil {
		return err
	}
	defer sr.Close()

	conflicts := 0
	err = artifact.WriteFile(output, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		seen := make(map[string]entrySum, len(cr.File)+len(sr.File))

		for _, src := range []struct {
			path  string
			files []*zip.File
		}{{client, cr.File}, {server, sr.File}} {
			for _, f := range src.files {
				if err := ctx.Err(); err != nil {
					return err
				}
				sum := entrySum{crc: f.CRC32, size: f.UncompressedSize64}
				if prev, dup := seen[f.Name]; dup {
					if prev != sum && !strings.HasSuffix(f.Name, "/") {
						conflicts++
						m.logger().Debug("conflicting entry, keeping client copy", "entry", f.Name)
					}
					continue
				}
				seen[f.Name] = sum
				if err := copyEntry(zw, f); err != nil {
					return classify(err, src.path)
				}
			}
		}
		return zw.Close()
	})
	if err != nil {
		return err
	}

	if conflicts > 0 {
		m.logger().Debug("merged with conflicts", "conflicts", conflicts, "output", output)
	}
	return nil
}

func (m *ZipMerger) logger() *log.Logger {
	if m.Logger == nil {
		return log.Default()
	}
	return m.Logger
}

func openArchive(path string) (*zip.ReadCloser, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, classify(err, path)
	}
	return r, nil
}

// copyEntry re-encodes one entry. Reading to EOF verifies the CRC, so a
// damaged entry surfaces as zip.ErrChecksum here.
func copyEntry(zw *zip.Writer, f *zip.File) error {
	hdr := f.FileHeader
	hdr.Extra = nil
	if strings.HasSuffix(hdr.Name, "/") {
		_, err := zw.CreateHeader(&hdr)
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	w, err := zw.CreateHeader(&hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, rc)
	return err
}

// classify maps structural zip failures to CORRUPT_ARCHIVE and everything
// else to IO_ERROR.
func classify(err error, path string) error {
	switch {
	case stderrors.Is(err, zip.ErrFormat),
		stderrors.Is(err, zip.ErrChecksum),
		stderrors.Is(err, zip.ErrAlgorithm),
		stderrors.Is(err, io.ErrUnexpectedEOF):
		return errors.Wrap(errors.ErrCodeCorruptArchive, err, "malformed archive %s", path)
	case errors.GetCode(err) != "":
		return err
	default:
		return errors.Wrap(errors.ErrCodeIO, err, "read archive %s", path)
	}
}

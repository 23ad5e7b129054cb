package artifact

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// WriteFile creates path by streaming fn's output into a temp file in the same
// directory and renaming it into place once fn and the flush succeed. The
// parent directory is created if needed. On any failure the temp file is
// removed and path is left untouched.
func WriteFile(path string, fn func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".jarmill-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	bw := bufio.NewWriterSize(tmp, 64*1024)
	err = fn(bw)
	if err == nil {
		err = bw.Flush()
	}
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

package mappings

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/jarmill/pkg/errors"
)

// Table holds class names across namespaces.
type Table struct {
	// Namespaces in column order, e.g. ["official", "intermediary", "named"].
	Namespaces []string

	// Classes holds one row per class with len(Namespaces) names each.
	Classes [][]string
}

// Namespace returns the column index of ns, or -1.
func (t *Table) Namespace(ns string) int {
	for i, n := range t.Namespaces {
		if n == ns {
			return i
		}
	}
	return -1
}

// ClassMap returns the class renames from one namespace to another, keyed by
// internal name (slash-separated). Identity renames are omitted.
func (t *Table) ClassMap(from, to string) (map[string]string, error) {
	fi, ti := t.Namespace(from), t.Namespace(to)
	if fi < 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "unknown namespace %q (have %v)", from, t.Namespaces)
	}
	if ti < 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "unknown namespace %q (have %v)", to, t.Namespaces)
	}

	out := make(map[string]string, len(t.Classes))
	for _, row := range t.Classes {
		src, dst := row[fi], row[ti]
		if src == "" || dst == "" || src == dst {
			continue
		}
		out[src] = dst
	}
	return out, nil
}

// Parse reads the class section of a tiny v2 mapping file.
func Parse(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty mapping file")
	}

	header := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
	if len(header) < 5 || header[0] != "tiny" || header[1] != "2" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported mapping header %q", sc.Text())
	}

	t := &Table{Namespaces: header[3:]}
	width := len(t.Namespaces)

	for line := 2; sc.Scan(); line++ {
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "\t") {
			continue
		}

		cols := strings.Split(text, "\t")
		if cols[0] != "c" {
			continue
		}
		if len(cols)-1 > width || len(cols) < 2 || cols[1] == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "line %d: malformed class entry", line)
		}

		row := make([]string, width)
		copy(row, cols[1:])
		// Missing destination names inherit the source name.
		for i := 1; i < width; i++ {
			if row[i] == "" {
				row[i] = row[0]
			}
		}
		t.Classes = append(t.Classes, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read mappings: %w", err)
	}
	return t, nil
}

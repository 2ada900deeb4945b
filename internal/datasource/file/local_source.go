// Package file reads landed extracts from the local filesystem.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"olympics/internal/datasource"
	"olympics/internal/parser"
	"olympics/internal/records"
)

// Local is a filesystem data source that opens one file from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading. A canceled context is reported
// without touching the filesystem. Filesystem errors are wrapped with the path
// and still satisfy errors.Is(err, os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Extension is the file suffix recognised as an extract.
const Extension = ".csv"

// ListExtracts returns the sorted paths of all *.csv files directly inside
// dir. Subdirectories are not descended into.
func ListExtracts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Extension) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// ExtractName is the base name of path without its extension; it keys the
// frame in the reconciler's input.
func ExtractName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadExtracts parses every extract in dir with p and returns the frames keyed
// by ExtractName. Zero extracts yields *datasource.NoFilesFoundError. The first
// extract that fails to parse aborts the read and is named in the error.
func ReadExtracts(ctx context.Context, dir string, p parser.Parser) (map[string]records.Frame, error) {
	paths, err := ListExtracts(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, &datasource.NoFilesFoundError{Location: dir}
	}
	out := make(map[string]records.Frame, len(paths))
	for _, path := range paths {
		f, err := readOne(ctx, path, p)
		if err != nil {
			return nil, err
		}
		out[ExtractName(path)] = f
	}
	return out, nil
}

func readOne(ctx context.Context, path string, p parser.Parser) (records.Frame, error) {
	rc, err := NewLocal(path).Open(ctx)
	if err != nil {
		return records.Frame{}, err
	}
	defer rc.Close()
	f, err := p.Parse(rc)
	if err != nil {
		return records.Frame{}, fmt.Errorf("parse extract %s (%s): %w", ExtractName(path), path, err)
	}
	return f, nil
}

package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalAdapter implements Adapter on the local filesystem. Each object
// path maps to a file under the root directory; writes go through a
// temp-file-then-rename so readers never observe partial objects.
type LocalAdapter struct {
	root    string
	profile BatchProfile
}

var _ Adapter = (*LocalAdapter)(nil)

// NewLocalAdapter creates a filesystem adapter rooted at dir, creating
// the directory if needed.
func NewLocalAdapter(dir string) (*LocalAdapter, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create root %s: %w", dir, err)
	}
	return &LocalAdapter{
		root: dir,
		profile: BatchProfile{
			MaxBatchSize:           256,
			MaxConcurrent:          16,
			SupportsParallelWrites: true,
		},
	}, nil
}

func (l *LocalAdapter) filePath(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// WriteObject stores value at path atomically.
func (l *LocalAdapter) WriteObject(ctx context.Context, path string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := l.filePath(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// ReadObject returns the object at path, or ErrNotFound.
func (l *LocalAdapter) ReadObject(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.filePath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// DeleteObject removes the object at path; absent objects are ignored.
func (l *LocalAdapter) DeleteObject(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(l.filePath(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ListPaths walks the deepest directory covered by prefix and returns
// matching object paths, sorted, in slash form relative to the root.
func (l *LocalAdapter) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Only the portion of the prefix up to the last slash names a
	// directory; the remainder filters entries inside it.
	dirPart := ""
	if i := strings.LastIndexByte(prefix, '/'); i >= 0 {
		dirPart = prefix[:i]
	}

	start := filepath.Join(l.root, filepath.FromSlash(dirPart))
	if _, err := os.Stat(start); errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}

	var paths []string
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		slashed := filepath.ToSlash(rel)
		if strings.HasPrefix(slashed, prefix) {
			paths = append(paths, slashed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// Profile declares the adapter's batch characteristics.
func (l *LocalAdapter) Profile() BatchProfile { return l.profile }

// Root returns the adapter's root directory.
func (l *LocalAdapter) Root() string { return l.root }

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend stores each collection as <dir>/<collection>.json.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) *FileBackend { return &FileBackend{dir: dir} }

func (f *FileBackend) path(c Collection) string {
	return filepath.Join(f.dir, string(c)+".json")
}

// Load reads the collection file.  A missing file yields ErrNotExist.
func (f *FileBackend) Load(ctx context.Context, c Collection) ([]byte, error) {
	var data []byte
	err := withContext(ctx, func() error {
		b, err := os.ReadFile(f.path(c))
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotExist
		}
		data = b
		return err
	})
	return data, err
}

// Replace writes the document to a temp file in the same directory and
// renames it over the collection file, so readers never see a torn write.
func (f *FileBackend) Replace(ctx context.Context, c Collection, data []byte) error {
	return withContext(ctx, func() error {
		return writeAtomic(ctx, f.dir, f.path(c), data)
	})
}

// writeAtomic stages data next to path and renames it into place.  The
// rename is skipped once ctx is done: the caller has already been told the
// write failed, so the document must not appear afterwards.
func writeAtomic(ctx context.Context, dir, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	// last point at which the write can still be abandoned
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// withContext runs blocking file I/O so that the caller gives up once ctx
// is done.  The goroutine itself finishes whenever the syscall returns; fn
// must re-check ctx before any step that makes its work visible.
func withContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

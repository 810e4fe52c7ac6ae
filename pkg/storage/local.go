package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrSizeMismatch is returned when a write ends with a different byte count
// than announced.
var ErrSizeMismatch = errors.New("storage: size mismatch")

// LocalConfig holds configuration for local storage.
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// LocalStorage keeps objects as files under a base directory. Keys are
// slash separated and can never resolve outside that directory.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("local storage: base path is empty")
	}
	root, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("local storage: resolve %s: %w", cfg.BasePath, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: create %s: %w", root, err)
	}
	return &LocalStorage{root: root}, nil
}

// resolve maps key below root. Rooting the key before cleaning strips any
// leading "..".
func (s *LocalStorage) resolve(key string) (string, error) {
	rel := strings.TrimPrefix(filepath.Clean("/"+filepath.FromSlash(key)), string(os.PathSeparator))
	if rel == "" {
		return "", fmt.Errorf("local storage: empty key %q", key)
	}
	return filepath.Join(s.root, rel), nil
}

// Write streams r into a temp file next to the target and renames it into
// place, so readers never observe a partial release. A non-negative size is
// checked against the bytes received.
func (s *LocalStorage) Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("local storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("local storage: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, ctxReader{ctx: ctx, r: r})
	if err != nil {
		return fmt.Errorf("local storage: write %s: %w", key, err)
	}
	if size >= 0 && n != size {
		return fmt.Errorf("%w: %s got %d bytes, want %d", ErrSizeMismatch, key, n, size)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("local storage: sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("local storage: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("local storage: commit %s: %w", key, err)
	}
	committed = true
	return nil
}

// Read opens the object for key.
func (s *LocalStorage) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	return f, nil
}

// Delete removes the object for key. Deleting a missing key succeeds.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local storage: %w", err)
	}
	return nil
}

// Exists reports whether key holds a regular file.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("local storage: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// GetURL is not supported; the API streams local releases itself.
func (s *LocalStorage) GetURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "", ErrURLNotSupported
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

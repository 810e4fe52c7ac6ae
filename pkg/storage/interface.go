package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when no object exists for a key.
	ErrNotFound = errors.New("object not found")
	// ErrURLNotSupported is returned by backends that cannot hand out URLs;
	// callers stream the object through Read instead.
	ErrURLNotSupported = errors.New("storage backend does not serve URLs")
)

// Storage stores product release artifacts.
type Storage interface {
	// Write stores content from the reader with the given key.
	// The size parameter is the expected content size (-1 if unknown).
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read retrieves content for the given key. The caller closes it.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content with the given key.
	Delete(ctx context.Context, key string) error

	// Exists checks if content with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a time limited download URL.
	GetURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	Driver string      `mapstructure:"driver"` // "local", "s3"
	Local  LocalConfig `mapstructure:"local"`
	S3     S3Config    `mapstructure:"s3"`
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	case "local", "":
		return NewLocalStorage(cfg.Local)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}

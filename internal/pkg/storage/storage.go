package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrFileNotFound = errors.New("file not found")

type FileStorage interface {
	// Upload stores a file and returns its path relative to the storage root
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Download returns ErrFileNotFound for a missing path
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete is a no-op for a missing path
	Delete(ctx context.Context, path string) error

	// GetURL generates a presigned/public URL
	GetURL(ctx context.Context, path string, expiry time.Duration) (string, error)

	Exists(ctx context.Context, path string) (bool, error)
}

// Package storage archives daily reports outside the run directory.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrInvalidPath = errors.New("invalid storage path")

type FileStorage interface {
	// Upload stores the content under key and returns the stored key.
	Upload(ctx context.Context, file io.Reader, key string, contentType string) (string, error)

	// Exists checks if a key is present.
	Exists(ctx context.Context, key string) (bool, error)
}

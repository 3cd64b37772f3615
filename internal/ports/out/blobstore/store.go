package blobstore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

// Object describes a stored blob.
type Object struct {
	Key         string
	ContentType string
	Size        int64
}

// Store keeps binary objects such as member profile pictures.
type Store interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader, size int64) error
	// Get returns a reader the caller must close.
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, key string) error
}

// Presigner is implemented by stores that can hand out short-lived download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

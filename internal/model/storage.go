package model

import (
	"context"
	"io"
)

// Object is a stored blob opened for reading.
type Object struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

// Storage keeps uploaded profile pictures.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

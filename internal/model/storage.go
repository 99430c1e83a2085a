package model

import (
	"context"
	"io"
)

// Storage is a keyed byte medium the flat-file backend keeps its file on.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Appender is implemented by media that can append to an object in place.
type Appender interface {
	Append(ctx context.Context, key string, reader io.Reader) error
}

// Package storage provides read access to site content kept in an object
// store. The API server never writes content; publishing happens out of
// band.
package storage

import (
	"context"
	"io"
)

// ContentStore defines the read operations shared across backends.
type ContentStore interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Bucket() string
}

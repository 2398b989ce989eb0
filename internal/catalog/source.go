// Package catalog abstracts where the static services catalog document is
// read from: a local file in the simple deployment, or an object store
// when content is published centrally.
package catalog

import (
	"context"
	"io"
	"os"

	"github.com/coopsite/apiserver/internal/storage"
)

// Source opens the raw catalog document.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads the catalog from a local JSON file.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(s.Path)
}

// ObjectSource reads the catalog from an object store key.
type ObjectSource struct {
	store storage.ContentStore
	key   string
}

func NewObjectSource(store storage.ContentStore, key string) *ObjectSource {
	return &ObjectSource{store: store, key: key}
}

func (s *ObjectSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return s.store.Get(ctx, s.key)
}

package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/climbing-section/backoffice/internal/ports/out/blobstore"
)

type object struct {
	contentType string
	data        []byte
}

// Store is an in-memory implementation of blobstore.Store.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewStore() *Store {
	return &Store{objects: make(map[string]object)}
}

func (s *Store) Put(ctx context.Context, key string, contentType string, body io.Reader, size int64) error {
	_ = ctx
	_ = size
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{contentType: contentType, data: data}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, blobstore.Object, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[key]
	if !ok {
		return nil, blobstore.Object{}, blobstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(o.data)), blobstore.Object{
		Key:         key,
		ContentType: o.contentType,
		Size:        int64(len(o.data)),
	}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Len reports how many objects are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

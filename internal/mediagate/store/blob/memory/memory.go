// Package memory is an in-process blob store for development and tests.
package memory

import (
	"bytes"
	"context"
	"io"
	"maps"
	"sync"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob"
)

type entry struct {
	obj  blob.Object
	data []byte
}

// Store is a process-local blob.Store for dev mode and tests.
type Store struct {
	mu      sync.RWMutex
	objects map[string]entry
}

func New() *Store {
	return &Store{objects: make(map[string]entry)}
}

func (s *Store) Put(ctx context.Context, obj blob.Object, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	obj.Size = int64(len(data))
	obj.Metadata = maps.Clone(obj.Metadata)

	s.mu.Lock()
	s.objects[obj.Key] = entry{obj: obj, data: data}
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, blob.Object, error) {
	s.mu.RLock()
	e, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, blob.Object{}, blob.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(e.data)), e.obj, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Len is the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

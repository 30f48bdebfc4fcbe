package mocks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/phrazzld/takeatask-api/internal/platform/blob"
)

// MemoryBlobStore implements blob.Store in memory.
type MemoryBlobStore struct {
	mu    sync.Mutex
	next  int
	blobs map[string][]byte

	// PutErr and DeleteErr, when set, are returned by Put and Delete.
	PutErr    error
	DeleteErr error
}

var _ blob.Store = (*MemoryBlobStore)(nil)

// NewMemoryBlobStore creates an empty MemoryBlobStore.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

// Put implements blob.Store.
func (s *MemoryBlobStore) Put(_ context.Context, r io.Reader, ext string) (string, int64, error) {
	if s.PutErr != nil {
		return "", 0, s.PutErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	if ext == "" {
		ext = blob.DefaultExtension
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	locator := fmt.Sprintf("blob-%d.%s", s.next, ext)
	s.blobs[locator] = data
	return locator, int64(len(data)), nil
}

// Open implements blob.Store.
func (s *MemoryBlobStore) Open(_ context.Context, locator string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[locator]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete implements blob.Store.
func (s *MemoryBlobStore) Delete(_ context.Context, locator string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, locator)
	return nil
}

// Len returns the number of stored blobs.
func (s *MemoryBlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// Has reports whether locator is stored.
func (s *MemoryBlobStore) Has(locator string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[locator]
	return ok
}

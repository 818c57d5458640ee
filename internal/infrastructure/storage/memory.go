package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/crosslist/backend/internal/application/imagepipe"
)

// MemoryObjectStorage keeps uploads in a map. It backs development setups
// without an S3 endpoint and the pipeline tests.
type MemoryObjectStorage struct {
	// BaseURL prefixes the URLs handed back for stored keys
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates an empty in-memory store.
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]memoryObject),
	}
}

// Ensure MemoryObjectStorage implements the pipeline's storage port
var _ imagepipe.ObjectStorageService = (*MemoryObjectStorage)(nil)

// Upload stores bytes under the given key.
func (s *MemoryObjectStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[storageKey] = memoryObject{data: buf, contentType: contentType}
	return nil
}

// PublicURL returns the URL a stored key would be served from.
func (s *MemoryObjectStorage) PublicURL(storageKey string) string {
	return s.BaseURL + "/" + storageKey
}

// Object returns a stored object's bytes and content type.
func (s *MemoryObjectStorage) Object(storageKey string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	return obj.data, obj.contentType, ok
}

// Len reports the number of stored objects.
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// DeleteObject removes a stored object.
func (s *MemoryObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// ObjectExists checks whether a key is stored.
func (s *MemoryObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

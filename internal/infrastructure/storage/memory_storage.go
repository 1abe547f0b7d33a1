package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

var ErrObjectNotFound = errors.New("object not found")

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStorage keeps objects in process memory. Buckets are created on
// first upload.
type MemoryStorage struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memoryObject
	logger  logger.Logger
}

func NewMemoryStorage(log logger.Logger) *MemoryStorage {
	return &MemoryStorage{
		buckets: make(map[string]map[string]memoryObject),
		logger:  logger.Component(log, "memory_storage"),
	}
}

func (m *MemoryStorage) Upload(_ context.Context, bucket, key string, data io.Reader, size int64, contentType string) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}
	if size >= 0 && int64(len(body)) != size {
		return fmt.Errorf("object size mismatch: expected %d, got %d", size, len(body))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		objects = make(map[string]memoryObject)
		m.buckets[bucket] = objects
		m.logger.Infof("Created bucket: %s", bucket)
	}
	objects[key] = memoryObject{data: body, contentType: contentType}

	m.logger.Debugf("Uploaded object %s/%s", bucket, key)
	return nil
}

func (m *MemoryStorage) Download(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemoryStorage) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if objects, ok := m.buckets[bucket]; ok {
		delete(objects, key)
	}
	return nil
}

func (m *MemoryStorage) Exists(_ context.Context, bucket, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.buckets[bucket][key]
	return ok, nil
}

func (m *MemoryStorage) HealthCheck(_ context.Context) error {
	return nil
}

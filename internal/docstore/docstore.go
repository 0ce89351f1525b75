// Package docstore is the object-store port for raw uploaded documents. The
// engine only ever writes immutable blobs and hands the resulting URL to the
// audit trail; everything else about document storage is external.
package docstore

import (
	"context"
	"errors"
	"sync"
)

var ErrEmptyKey = errors.New("docstore: object key is required")

// Store persists one document's raw bytes and returns a stable URL for it.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Memory is an in-process Store for tests and local development. It is safe
// for concurrent use.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = buf
	return "memory://" + key, nil
}

// Get returns a stored object's bytes; test helper.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// Len reports the number of stored objects; test helper.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

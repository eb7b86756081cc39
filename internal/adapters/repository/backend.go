package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Backend names accepted by NewBackend.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// Backend is a blob key-value substrate for encoded timelines. Get returns an
// error wrapping ErrNotFound for unknown keys; Delete of an unknown key is not
// an error.
type Backend interface {
	Name() string
	Put(ctx context.Context, key string, blob []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Sizer is implemented by backends that can report their footprint.
type Sizer interface {
	Size() int64
}

// MemoryBackend keeps blobs in process memory, optionally bounded by a byte
// quota. It is the default backend and the one used by tests.
type MemoryBackend struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	size  int64
	quota int64
}

// NewMemoryBackend creates a memory backend. A quota of zero or less means
// unbounded.
func NewMemoryBackend(quota int64) *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string][]byte), quota: quota}
}

// Name implements Backend.
func (m *MemoryBackend) Name() string { return BackendMemory }

// Put implements Backend. It fails with ErrBackendFull when the blob would
// push the total past the quota.
func (m *MemoryBackend) Put(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.size - int64(len(m.blobs[key])) + int64(len(blob))
	if m.quota > 0 && next > m.quota {
		return fmt.Errorf("memory put %s (%d bytes): %w", key, len(blob), ErrBackendFull)
	}
	m.blobs[key] = append([]byte(nil), blob...)
	m.size = next
	return nil
}

// Get implements Backend.
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("memory get %s: %w", key, ErrNotFound)
	}
	return append([]byte(nil), blob...), nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size -= int64(len(m.blobs[key]))
	delete(m.blobs, key)
	return nil
}

// Keys implements Backend. Keys are returned sorted.
func (m *MemoryBackend) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Size implements Sizer.
func (m *MemoryBackend) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

// Close implements Backend.
func (m *MemoryBackend) Close() error { return nil }

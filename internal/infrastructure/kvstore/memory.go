package kvstore

import (
	"context"
	"strings"
	"sync"
)

// MemoryBackend keeps entries in a map. A positive quota caps the total
// size of keys plus values in bytes.
type MemoryBackend struct {
	mu    sync.RWMutex
	data  map[string]string
	used  int
	quota int
}

// MemoryOption configures a MemoryBackend
type MemoryOption func(*MemoryBackend)

// WithQuota limits the backend to quota bytes; zero means unlimited
func WithQuota(quota int) MemoryOption {
	return func(b *MemoryBackend) {
		b.quota = quota
	}
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	b := &MemoryBackend{data: make(map[string]string)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Get implements Backend
func (b *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok, nil
}

// Set implements Backend
func (b *MemoryBackend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	used := b.used + len(key) + len(value)
	if old, ok := b.data[key]; ok {
		used -= len(key) + len(old)
	}
	if b.quota > 0 && used > b.quota {
		return ErrQuotaExceeded
	}
	b.data[key] = value
	b.used = used
	return nil
}

// Delete implements Backend
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.data[key]; ok {
		b.used -= len(key) + len(old)
		delete(b.data, key)
	}
	return nil
}

// Keys implements Backend
func (b *MemoryBackend) Keys(_ context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Used returns the bytes currently stored
func (b *MemoryBackend) Used() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.used
}

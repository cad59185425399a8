package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemStore keeps objects in memory. Nothing survives the process.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string][]byte // bucket + "/" + key
}

var _ ObjectStore = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string][]byte)}
}

func memKey(bucket, key string) string {
	return bucket + "/" + key
}

func (m *MemStore) UploadObject(_ context.Context, bucket, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[memKey(bucket, key)] = append([]byte(nil), data...)
	return nil
}

func (m *MemStore) DownloadObject(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[memKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("mem get %s: %w", key, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemStore) DeleteObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, memKey(bucket, key))
	return nil
}

// ListObjects returns keys under prefix in lexical order.
func (m *MemStore) ListObjects(_ context.Context, bucket, prefix string, max int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	full := memKey(bucket, prefix)
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, full) {
			keys = append(keys, strings.TrimPrefix(k, bucket+"/"))
		}
	}
	sort.Strings(keys)
	if len(keys) > max {
		keys = keys[:max]
	}
	return keys, nil
}

package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps indexes in process memory. Values are copied on the way
// in and out. Nothing survives the process.
type MemoryStore struct {
	mu      sync.Mutex
	indexes map[string]*memoryIndex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{indexes: make(map[string]*memoryIndex)}
}

// Index returns the index called name.
func (s *MemoryStore) Index(name string) Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[name]
	if !ok {
		idx = &memoryIndex{items: make(map[string][]byte)}
		s.indexes[name] = idx
	}
	return idx
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

type memoryIndex struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func (m *memoryIndex) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryIndex) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryIndex) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *memoryIndex) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string][]byte)
	return nil
}

func (m *memoryIndex) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)

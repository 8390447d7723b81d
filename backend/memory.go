package backend

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryAdapter is an in-memory Adapter implementation.
//
// It backs tests and short-lived embedded use without any filesystem
// dependency. Thread-safe for concurrent reads and writes.
type MemoryAdapter struct {
	mu      sync.RWMutex
	objects map[string][]byte
	profile BatchProfile
}

var (
	_ Adapter     = (*MemoryAdapter)(nil)
	_ BatchReader = (*MemoryAdapter)(nil)
	_ BatchWriter = (*MemoryAdapter)(nil)
)

// NewMemoryAdapter creates an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		objects: make(map[string][]byte),
		profile: BatchProfile{
			MaxBatchSize:           1024,
			MaxConcurrent:          64,
			SupportsParallelWrites: true,
		},
	}
}

// WriteObject stores value at path.
func (m *MemoryAdapter) WriteObject(_ context.Context, path string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy to prevent external mutation
	copied := make([]byte, len(value))
	copy(copied, value)
	m.objects[path] = copied
	return nil
}

// ReadObject returns the object at path, or ErrNotFound.
func (m *MemoryAdapter) ReadObject(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[path]
	if !ok {
		return nil, ErrNotFound
	}

	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// DeleteObject removes the object at path.
func (m *MemoryAdapter) DeleteObject(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, path)
	return nil
}

// ListPaths returns all object paths matching the prefix, sorted.
func (m *MemoryAdapter) ListPaths(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0)
	for p := range m.objects {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadObjects implements the native batch read primitive.
func (m *MemoryAdapter) ReadObjects(_ context.Context, paths []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(paths))
	for _, p := range paths {
		if data, ok := m.objects[p]; ok {
			copied := make([]byte, len(data))
			copy(copied, data)
			out[p] = copied
		}
	}
	return out, nil
}

// WriteObjects implements the native batch write primitive.
func (m *MemoryAdapter) WriteObjects(_ context.Context, objects map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for p, data := range objects {
		copied := make([]byte, len(data))
		copy(copied, data)
		m.objects[p] = copied
	}
	return nil
}

// Profile declares the adapter's batch characteristics.
func (m *MemoryAdapter) Profile() BatchProfile { return m.profile }

// Len returns the number of stored objects (test helper).
func (m *MemoryAdapter) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

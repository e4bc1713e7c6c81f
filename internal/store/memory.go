package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps collections in process memory.  The mutex guards the
// map itself; it does not make Store's read-modify-write cycles atomic.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[Collection][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[Collection][]byte)}
}

func (m *MemoryBackend) Load(ctx context.Context, c Collection) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[c]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), doc...), nil
}

func (m *MemoryBackend) Replace(ctx context.Context, c Collection, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[c] = append([]byte(nil), data...)
	return nil
}

package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	maps map[string]MapSnapshot
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{maps: make(map[string]MapSnapshot)}
}

func (m *MemoryRepository) Save(ctx context.Context, snap MapSnapshot) error {
	if err := ValidateName(snap.Name); err != nil {
		return err
	}
	m.mu.Lock()
	m.maps[snap.Name] = snap.clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) Load(ctx context.Context, name string) (MapSnapshot, error) {
	m.mu.RLock()
	snap, ok := m.maps[name]
	m.mu.RUnlock()
	if !ok {
		return MapSnapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return snap.clone(), nil
}

func (m *MemoryRepository) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.maps[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(m.maps, name)
	return nil
}

func (m *MemoryRepository) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	names := make([]string, 0, len(m.maps))
	for name := range m.maps {
		names = append(names, name)
	}
	m.mu.RUnlock()
	slices.Sort(names)
	return names, nil
}

func (m *MemoryRepository) Close() error {
	return nil
}

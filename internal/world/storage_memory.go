package world

import "sync"

type memoryEditStore struct {
	mu    sync.RWMutex
	edits map[Cell]TileCode
}

func NewMemoryEditStore() EditStore {
	return &memoryEditStore{edits: make(map[Cell]TileCode)}
}

func (m *memoryEditStore) Save(cell Cell, code TileCode) error {
	m.mu.Lock()
	m.edits[cell] = code
	m.mu.Unlock()
	return nil
}

func (m *memoryEditStore) Delete(cell Cell) error {
	m.mu.Lock()
	delete(m.edits, cell)
	m.mu.Unlock()
	return nil
}

func (m *memoryEditStore) ForEach(fn func(cell Cell, code TileCode) bool) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for cell, code := range m.edits {
		if !fn(cell, code) {
			break
		}
	}
	return nil
}

func (m *memoryEditStore) Close() error {
	return nil
}

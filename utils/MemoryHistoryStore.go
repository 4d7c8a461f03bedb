package utils

import (
	"errors"
	"sync"

	"github.com/reaandrew/secscanner/core"
)

// MemoryHistoryStore is an in-memory core.HistoryStore. LoadErr and SaveErr
// let tests simulate a broken backing store.
type MemoryHistoryStore struct {
	mu      sync.Mutex
	history []core.ScanResult
	stored  bool
	Saves   int
	LoadErr error
	SaveErr error
}

func NewMemoryHistoryStore(history ...core.ScanResult) *MemoryHistoryStore {
	store := &MemoryHistoryStore{}
	if len(history) > 0 {
		store.history = core.CloneResults(history)
		store.stored = true
	}
	return store
}

func (m *MemoryHistoryStore) Load() ([]core.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if !m.stored {
		return nil, core.ErrHistoryNotFound
	}
	return core.CloneResults(m.history), nil
}

func (m *MemoryHistoryStore) Save(history []core.ScanResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	m.history = core.CloneResults(history)
	m.stored = true
	return nil
}

func (m *MemoryHistoryStore) Close() error {
	return nil
}

// Stored returns what was last saved, or nil when the store is empty.
func (m *MemoryHistoryStore) Stored() []core.ScanResult {
	history, err := m.Load()
	if errors.Is(err, core.ErrHistoryNotFound) {
		return nil
	}
	return history
}

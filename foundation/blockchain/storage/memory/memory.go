// Package memory implements the ledger store in memory. It is used when a
// node runs without persistence and by tests.
package memory

import (
	"errors"
	"sync"

	"github.com/powledger/blockchain/foundation/blockchain/storage"
)

// Memory represents the serialization implementation for keeping the
// ledger state in memory. The snapshot goes through the same encoding as
// the disk backends. This implements the storage.Store interface.
type Memory struct {
	mu      sync.RWMutex
	docs    *storage.Documents
	saves   int
	failErr error
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Load returns the last saved snapshot.
func (m *Memory) Load() (storage.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.docs == nil {
		return storage.Snapshot{}, storage.ErrNoState
	}

	return storage.Decode(*m.docs)
}

// Save replaces the stored snapshot.
func (m *Memory) Save(snapshot storage.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return m.failErr
	}

	docs, err := storage.Encode(snapshot)
	if err != nil {
		return err
	}

	m.docs = &docs
	m.saves++

	return nil
}

// Saves returns how many times the state was saved.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.saves
}

// FailSaves makes every following save return the specified error. Passing
// nil restores normal behavior.
func (m *Memory) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failErr = err
}

// ErrUnavailable can be used with FailSaves to simulate a broken disk.
var ErrUnavailable = errors.New("storage unavailable")

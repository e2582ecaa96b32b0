// Package storage persists small client-side values (session token, cached
// profile, app settings) under fixed keys.
package storage

import (
	"errors"
	"fmt"
	"sync"
)

// Well-known keys.
const (
	KeyToken    = "token"
	KeyUserInfo = "userInfo"
	KeySettings = "app_settings"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a flat key/value store.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Open returns the named backend rooted at dir.
func Open(backend, dir string) (Storage, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStorage(dir), nil
	case BackendBadger:
		return OpenBadger(dir)
	case BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("storage.Open: unknown backend %q", backend)
	}
}

// MemoryStorage keeps values in a map. Used by tests and --ephemeral runs.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Close() error { return nil }

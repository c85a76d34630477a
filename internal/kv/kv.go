// Package kv provides the key-value slots that hold serialized quote
// collections. A Store replaces a value as a whole on every Set, so readers
// never observe a partially written snapshot.
package kv

import (
	"sort"
	"sync"
)

// Well-known slot keys.
const (
	LocalKey      = "quoteGeneratorQuotes"
	ServerKey     = "serverQuotes"
	FilterKey     = "selectedCategoryFilter"
	LastViewedKey = "lastViewedQuote"
)

// Store is the storage primitive behind the local and simulated-remote slots.
type Store interface {
	// Get returns the stored value and true, or nil and false when the key is absent.
	Get(key string) ([]byte, bool, error)
	// Set replaces the value stored under key.
	Set(key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns the stored keys in sorted order
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

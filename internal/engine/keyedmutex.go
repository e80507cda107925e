package engine

import "sync"

// KeyedMutex provides mutual exclusion scoped to a string key. Operations on
// different keys never block each other. Entries are created on first use and
// kept for the lifetime of the mutex; the key space here (discussion trees,
// like targets) is bounded by the data set, so no eviction is needed.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it if necessary.
func (m *KeyedMutex) Lock(key string) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.mu.Unlock()
	l.Lock()
}

// Unlock releases the mutex for key. The key must be held.
func (m *KeyedMutex) Unlock(key string) {
	m.mu.Lock()
	l := m.locks[key]
	m.mu.Unlock()
	l.Unlock()
}

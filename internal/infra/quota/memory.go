package quota

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count   int64
	expires time.Time
}

// MemoryCounter keeps counts in process memory.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCounter creates an empty in-memory counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// live returns the entry for key, dropping it if expired (must hold lock).
func (m *MemoryCounter) live(key string) memoryEntry {
	e, ok := m.entries[key]
	if ok && !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return memoryEntry{}
	}
	return e
}

// Incr increments key, starting a ttl window when the key is new.
func (m *MemoryCounter) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e.count == 0 && ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	e.count++
	m.entries[key] = e
	return e.count, nil
}

// Decr decrements key.
func (m *MemoryCounter) Decr(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	e.count--
	m.entries[key] = e
	return nil
}

// Get returns the current count for key.
func (m *MemoryCounter) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(key).count, nil
}

// Reset deletes key.
func (m *MemoryCounter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local store used when no NATS cluster is
// configured, and as the degradation target behind Tiered. Expiry is lazy:
// stale entries are dropped on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Put stores a field with the TTL of its class.
func (m *MemoryStore) Put(_ context.Context, sessionID, field, value string) error {
	entry := memoryEntry{value: value}
	if ttl := TTLOf(ClassOf(field)); ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[Key("local", sessionID, field)] = entry
	m.mu.Unlock()
	return nil
}

// Get returns the field value when present and unexpired.
func (m *MemoryStore) Get(_ context.Context, sessionID, field string) (string, bool) {
	key := Key("local", sessionID, field)

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return "", false
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false
	}
	return entry.value, true
}

// Delete removes the given fields.
func (m *MemoryStore) Delete(_ context.Context, sessionID string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, field := range fields {
		delete(m.entries, Key("local", sessionID, field))
	}
	return nil
}

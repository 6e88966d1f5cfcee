package captcha

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	answer    string
	expiresAt time.Time
}

// MemoryStore is an in-process Store for single-instance deployments
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Set stores an answer and drops any entries that have already expired
func (m *MemoryStore) Set(_ context.Context, id, answer string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.entries[id] = memoryEntry{answer: answer, expiresAt: now.Add(ttl)}
	return nil
}

// Get returns the answer for id unless it is missing or expired
func (m *MemoryStore) Get(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return "", ErrNotFound
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, id)
		return "", ErrNotFound
	}
	return e.answer, nil
}

// Delete removes id
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Len returns the number of stored entries, expired ones included
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

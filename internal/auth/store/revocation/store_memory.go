package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process denylist used in development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	effectiveAt time.Time
	expiresAt   time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Revoke(_ context.Context, sessionID string, effectiveAt time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryEntry{
		effectiveAt: effectiveAt,
		expiresAt:   effectiveAt.Add(ttl),
	}
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, sessionID string, now time.Time) (bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if now.After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return false, nil
	}
	return !now.Before(entry.effectiveAt), nil
}

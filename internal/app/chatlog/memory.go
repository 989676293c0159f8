package chatlog

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]Message
}

// NewMemoryStore returns an empty in-memory chat log.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[string][]Message)}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[m.WebsiteID] = append(s.messages[m.WebsiteID], m)
	return nil
}

// Recent implements Store.
func (s *MemoryStore) Recent(ctx context.Context, websiteID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.messages[websiteID]
	if limit < 0 {
		limit = 0
	}
	if len(log) > limit {
		log = log[len(log)-limit:]
	}

	out := make([]Message, len(log))
	copy(out, log)
	return out, nil
}

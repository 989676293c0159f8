package layout

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]Draft
}

// NewMemoryStore returns an empty in-memory draft store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]Draft)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, pageID string) (Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, ok := s.drafts[pageID]
	if !ok {
		return Draft{}, ErrNotFound
	}

	draft.Sections = CloneSections(draft.Sections)
	return draft, nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, draft Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}
	draft.Sections = CloneSections(draft.Sections)
	s.drafts[draft.PageID] = draft
	return nil
}

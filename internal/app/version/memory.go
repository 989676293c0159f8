package version

import (
	"context"
	"sort"
	"sync"

	"layoutsync/internal/app/layout"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	byPage  map[string][]Commit
	nextVer map[string]int
}

// NewMemoryStore returns an empty in-memory commit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byPage:  make(map[string][]Commit),
		nextVer: make(map[string]int),
	}
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, c Commit) (Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextVer[c.PageID]++
	c.Version = s.nextVer[c.PageID]
	c.Snapshot = layout.CloneSections(c.Snapshot)
	s.byPage[c.PageID] = append(s.byPage[c.PageID], c)

	return c, nil
}

// ListByPage implements Store.
func (s *MemoryStore) ListByPage(ctx context.Context, pageID string) ([]Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	commits := make([]Commit, len(s.byPage[pageID]))
	copy(commits, s.byPage[pageID])
	for i := range commits {
		commits[i].Snapshot = layout.CloneSections(commits[i].Snapshot)
	}

	sort.Slice(commits, func(i, j int) bool { return commits[i].Version > commits[j].Version })
	return commits, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, pageID, commitID string) (Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.byPage[pageID] {
		if c.ID == commitID {
			c.Snapshot = layout.CloneSections(c.Snapshot)
			return c, nil
		}
	}

	return Commit{}, ErrNotFound
}

package layout

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no draft exists for a page.
var ErrNotFound = errors.New("layout: page draft not found")

// Draft is a page's persisted working layout.
type Draft struct {
	PageID    string    `json:"pageId"`
	WebsiteID string    `json:"websiteId"`
	Sections  []Section `json:"sections"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists page layout drafts. Saves are whole-state and
// latest-wins; there is no partial update.
type Store interface {
	// Get returns the current draft for the page, or ErrNotFound.
	Get(ctx context.Context, pageID string) (Draft, error)

	// Save replaces the page's draft wholesale.
	Save(ctx context.Context, draft Draft) error
}

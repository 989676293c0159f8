/*
Package version implements the immutable commit history of page layouts.

A commit captures a deep copy of the page's persisted draft under a
per-page version number that is strictly increasing from 1, with no gaps
and no reuse. Rollback restores a snapshot into the draft store; it never
creates a commit and never moves the version counter.
*/
package version

import (
	"context"
	"errors"
	"time"

	"layoutsync/internal/app/layout"
)

// ErrNotFound is returned when a commit does not exist for the given page.
var ErrNotFound = errors.New("version: commit not found")

// Commit is one immutable snapshot of a page layout.
type Commit struct {
	ID         string           `json:"commitId"`
	WebsiteID  string           `json:"websiteId"`
	PageID     string           `json:"pageId"`
	Version    int              `json:"version"`
	Message    string           `json:"message"`
	AuthorID   string           `json:"authorId"`
	AuthorName string           `json:"authorName"`
	Snapshot   []layout.Section `json:"snapshot"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Store is the durable, append-only commit log. (pageID, version) is
// unique; implementations assign the version atomically at insert.
type Store interface {
	// Create appends the commit, assigning version = max(page versions)+1
	// starting at 1, and returns the stored commit.
	Create(ctx context.Context, c Commit) (Commit, error)

	// ListByPage returns the page's commits ordered by version descending.
	ListByPage(ctx context.Context, pageID string) ([]Commit, error)

	// Get returns the commit only when it belongs to the given page;
	// otherwise ErrNotFound.
	Get(ctx context.Context, pageID, commitID string) (Commit, error)
}

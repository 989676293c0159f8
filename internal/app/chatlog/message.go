/*
Package chatlog is the durable, append-only log behind the per-workspace
chat channel. Live relay happens in the collab workspace scope; this
package only owns persistence and history retrieval.
*/
package chatlog

import (
	"context"
	"time"
)

// Message is one chat message within a workspace.
type Message struct {
	ID        string    `json:"id"`
	WebsiteID string    `json:"websiteId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Color     string    `json:"color"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the append-only chat log.
type Store interface {
	// Append adds the message to the workspace's log.
	Append(ctx context.Context, m Message) error

	// Recent returns at most limit of the newest messages for the
	// workspace, ordered oldest-first.
	Recent(ctx context.Context, websiteID string, limit int) ([]Message, error)
}

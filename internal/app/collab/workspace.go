package collab

import (
	"sync"

	"github.com/rs/zerolog"

	"layoutsync/internal/pkg/logx"
)

// Workspace is one website's chat scope: the set of connections that
// joined the workspace and receive its chat relay. Unlike rooms it keeps
// no draft or cursor state, so a mutex-guarded set is enough.
type Workspace struct {
	WebsiteID string

	mu      sync.RWMutex
	members map[string]*Client

	logger zerolog.Logger
}

func newWorkspace(websiteID string) *Workspace {
	return &Workspace{
		WebsiteID: websiteID,
		members:   make(map[string]*Client),
		logger: logx.Logger().With().
			Str("component", "Workspace").
			Str("website_id", websiteID).
			Logger(),
	}
}

// add registers the connection in the chat scope.
func (w *Workspace) add(client *Client) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.members[client.sess.ConnectionID] = client
}

// remove drops the connection and reports whether the scope is now empty.
func (w *Workspace) remove(client *Client) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if current, ok := w.members[client.sess.ConnectionID]; ok && current == client {
		delete(w.members, client.sess.ConnectionID)
	}
	return len(w.members) == 0
}

// BroadcastAll relays the payload to every connection in the scope, the
// sender's connections included, so all of a user's devices stay
// consistent.
func (w *Workspace) BroadcastAll(data []byte) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, client := range w.members {
		if !client.enqueue(data) {
			w.logger.Warn().
				Str("session_id", client.sess.ConnectionID).
				Msg("Chat relay dropped for slow connection.")
		}
	}
}

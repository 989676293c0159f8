package collab

import (
	"container/heap"
	"time"
)

// cursorState is one collaborator's last known cursor position.
type cursorState struct {
	userID   string
	x, y     float64
	lastSeen time.Time
}

// cursorDeadline is a scheduled expiry for one cursor. Entries are not
// removed from the heap on refresh; a popped entry whose deadline no
// longer matches the live state is stale and skipped.
type cursorDeadline struct {
	userID   string
	deadline time.Time
}

type deadlineHeap []cursorDeadline

func (h deadlineHeap) Len() int           { return len(h) }
func (h deadlineHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h deadlineHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *deadlineHeap) Push(x any)        { *h = append(*h, x.(cursorDeadline)) }
func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// cursorTracker holds a room's cursor states together with a min-heap of
// expiry deadlines, so the room actor can arm a single timer for the
// nearest expiry instead of one timer per cursor. The tracker dies with
// its room; nothing global survives a teardown.
type cursorTracker struct {
	ttl       time.Duration
	cursors   map[string]*cursorState
	deadlines deadlineHeap
}

func newCursorTracker(ttl time.Duration) *cursorTracker {
	return &cursorTracker{
		ttl:     ttl,
		cursors: make(map[string]*cursorState),
	}
}

// Touch records a cursor refresh for the user at the given instant.
func (t *cursorTracker) Touch(userID string, x, y float64, now time.Time) {
	state, ok := t.cursors[userID]
	if !ok {
		state = &cursorState{userID: userID}
		t.cursors[userID] = state
	}

	state.x, state.y = x, y
	state.lastSeen = now

	heap.Push(&t.deadlines, cursorDeadline{userID: userID, deadline: now.Add(t.ttl)})
}

// ExpireBefore purges every cursor whose expiry deadline is at or before
// now, returning the affected user IDs. Purged means deleted: an expired
// cursor leaves no state behind.
func (t *cursorTracker) ExpireBefore(now time.Time) []string {
	var expired []string

	for t.deadlines.Len() > 0 {
		next := t.deadlines[0]
		if next.deadline.After(now) {
			break
		}
		heap.Pop(&t.deadlines)

		state, ok := t.cursors[next.userID]
		if !ok {
			continue
		}

		// A refresh pushed a later deadline; this one is stale.
		if state.lastSeen.Add(t.ttl).After(now) {
			continue
		}

		delete(t.cursors, next.userID)
		expired = append(expired, next.userID)
	}

	return expired
}

// NextDeadline returns the nearest live expiry instant, skipping stale
// heap entries, and false when no cursors remain.
func (t *cursorTracker) NextDeadline() (time.Time, bool) {
	for t.deadlines.Len() > 0 {
		next := t.deadlines[0]

		state, ok := t.cursors[next.userID]
		if !ok || state.lastSeen.Add(t.ttl).After(next.deadline) {
			heap.Pop(&t.deadlines)
			continue
		}

		return next.deadline, true
	}

	return time.Time{}, false
}

// Remove drops the user's cursor immediately (used when their last
// session leaves the room).
func (t *cursorTracker) Remove(userID string) {
	delete(t.cursors, userID)
}

// Len returns the number of live cursors.
func (t *cursorTracker) Len() int {
	return len(t.cursors)
}

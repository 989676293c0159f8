package collab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorTrackerExpiresAfterTTL(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newCursorTracker(3 * time.Second)

	tracker.Touch("user-a", 0.25, 0.75, base)
	require.Equal(t, 1, tracker.Len())

	// Before the window elapses nothing expires.
	expired := tracker.ExpireBefore(base.Add(2 * time.Second))
	assert.Empty(t, expired)
	assert.Equal(t, 1, tracker.Len())

	// At the deadline the cursor is purged, not hidden.
	expired = tracker.ExpireBefore(base.Add(3 * time.Second))
	assert.Equal(t, []string{"user-a"}, expired)
	assert.Equal(t, 0, tracker.Len())

	_, ok := tracker.NextDeadline()
	assert.False(t, ok)
}

func TestCursorTrackerRefreshExtendsDeadline(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newCursorTracker(3 * time.Second)

	tracker.Touch("user-a", 0.1, 0.1, base)
	tracker.Touch("user-a", 0.2, 0.2, base.Add(2*time.Second))

	// The original deadline has passed, but the refresh keeps it alive.
	expired := tracker.ExpireBefore(base.Add(3 * time.Second))
	assert.Empty(t, expired)
	assert.Equal(t, 1, tracker.Len())

	// The refreshed deadline eventually fires.
	expired = tracker.ExpireBefore(base.Add(5 * time.Second))
	assert.Equal(t, []string{"user-a"}, expired)
	assert.Equal(t, 0, tracker.Len())
}

func TestCursorTrackerNextDeadlineSkipsStaleEntries(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newCursorTracker(3 * time.Second)

	tracker.Touch("user-a", 0.1, 0.1, base)
	tracker.Touch("user-b", 0.5, 0.5, base.Add(time.Second))
	tracker.Touch("user-a", 0.2, 0.2, base.Add(2*time.Second))

	deadline, ok := tracker.NextDeadline()
	require.True(t, ok)
	// user-a's first deadline is stale; user-b's is the nearest live one.
	assert.Equal(t, base.Add(1*time.Second).Add(3*time.Second), deadline)
}

func TestCursorTrackerRemove(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newCursorTracker(3 * time.Second)

	tracker.Touch("user-a", 0.1, 0.1, base)
	tracker.Remove("user-a")

	assert.Equal(t, 0, tracker.Len())
	assert.Empty(t, tracker.ExpireBefore(base.Add(10*time.Second)))
}

func TestCursorTrackerExpiresOnlyOverdueCursors(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newCursorTracker(3 * time.Second)

	tracker.Touch("user-a", 0.1, 0.1, base)
	tracker.Touch("user-b", 0.9, 0.9, base.Add(2*time.Second))

	expired := tracker.ExpireBefore(base.Add(4 * time.Second))
	assert.Equal(t, []string{"user-a"}, expired)
	assert.Equal(t, 1, tracker.Len())

	deadline, ok := tracker.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, base.Add(2*time.Second).Add(3*time.Second), deadline)
}

package collab

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layoutsync/internal/app/chatlog"
	"layoutsync/internal/app/layout"
	"layoutsync/internal/configs"
)

func newTestHub(t *testing.T, chat chatlog.Store) *Hub {
	t.Helper()

	hub := NewHub(&configs.AppConfig{
		AutosaveInterval: time.Hour,
		CursorTTL:        3 * time.Second,
	}, layout.NewMemoryStore(), chat)
	t.Cleanup(hub.Shutdown)

	return hub
}

func TestHubChatWhitespaceOnlyIsDroppedSilently(t *testing.T) {
	store := chatlog.NewMemoryStore()
	hub := newTestHub(t, store)

	alice := newTestClient("conn-a", "user-alice", "Alice")
	bob := newTestClient("conn-b", "user-bob", "Bob")
	hub.JoinWebsite(alice, "site-1")
	hub.JoinWebsite(bob, "site-1")

	require.NoError(t, hub.SendChat(context.Background(), alice, "site-1", "   \n\t  "))

	history, err := store.Recent(context.Background(), "site-1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.Empty(t, drainEvents(t, alice))
	assert.Empty(t, drainEvents(t, bob))
}

func TestHubChatRelaysToEveryConnectionIncludingSender(t *testing.T) {
	store := chatlog.NewMemoryStore()
	hub := newTestHub(t, store)

	alice := newTestClient("conn-a", "user-alice", "Alice")
	aliceTablet := newTestClient("conn-a2", "user-alice", "Alice")
	bob := newTestClient("conn-b", "user-bob", "Bob")
	other := newTestClient("conn-x", "user-x", "Xavier")

	hub.JoinWebsite(alice, "site-1")
	hub.JoinWebsite(aliceTablet, "site-1")
	hub.JoinWebsite(bob, "site-1")
	hub.JoinWebsite(other, "site-2")

	require.NoError(t, hub.SendChat(context.Background(), alice, "site-1", "  hello team  "))

	for _, c := range []*Client{alice, aliceTablet, bob} {
		events := drainEvents(t, c)
		require.Len(t, events, 1)
		assert.Equal(t, EventChatMessage, events[0].Name)

		var msg chatlog.Message
		require.NoError(t, json.Unmarshal(events[0].Payload, &msg))
		assert.Equal(t, "hello team", msg.Message)
		assert.Equal(t, "user-alice", msg.UserID)
		assert.Equal(t, "Alice", msg.UserName)
		assert.NotEmpty(t, msg.ID)
	}

	// Other workspaces never see it.
	assert.Empty(t, drainEvents(t, other))

	history, err := store.Recent(context.Background(), "site-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello team", history[0].Message)
}

func TestHubChatHistoryLimits(t *testing.T) {
	store := chatlog.NewMemoryStore()
	hub := newTestHub(t, store)

	for i := 0; i < 60; i++ {
		require.NoError(t, store.Append(context.Background(), chatlog.Message{
			ID:        strconv.Itoa(i),
			WebsiteID: "site-1",
			Message:   "m",
			CreatedAt: time.Date(2025, 6, 1, 12, 0, i, 0, time.UTC),
		}))
	}

	// Zero falls back to the default window.
	history, err := hub.ChatHistory(context.Background(), "site-1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 50)

	// Results are oldest-first and suffix-consistent with the full log.
	history, err = hub.ChatHistory(context.Background(), "site-1", 5)
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].CreatedAt.Before(history[i-1].CreatedAt))
	}
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 59, 0, time.UTC), history[4].CreatedAt)

	// An oversized request is clamped, never an error.
	history, err = hub.ChatHistory(context.Background(), "site-1", 10_000)
	require.NoError(t, err)
	assert.Len(t, history, 60)
}

func TestHubChatHistoryWindowShiftsByExactlyOne(t *testing.T) {
	store := chatlog.NewMemoryStore()
	hub := newTestHub(t, store)

	alice := newTestClient("conn-a", "user-alice", "Alice")
	hub.JoinWebsite(alice, "site-1")

	for i := 0; i < 8; i++ {
		require.NoError(t, hub.SendChat(context.Background(), alice, "site-1", "message "+strconv.Itoa(i)))
	}

	const n = 5
	before, err := hub.ChatHistory(context.Background(), "site-1", n)
	require.NoError(t, err)
	require.Len(t, before, n)

	require.NoError(t, hub.SendChat(context.Background(), alice, "site-1", "one more"))

	// The same window re-fetched drops exactly the previously-oldest
	// message and gains the new one at the tail.
	after, err := hub.ChatHistory(context.Background(), "site-1", n)
	require.NoError(t, err)
	require.Len(t, after, n)

	for i := 0; i < n-1; i++ {
		assert.Equal(t, before[i+1].ID, after[i].ID)
	}
	assert.Equal(t, "one more", after[n-1].Message)
}

func TestHubJoinWebsiteSwitchesScope(t *testing.T) {
	store := chatlog.NewMemoryStore()
	hub := newTestHub(t, store)

	alice := newTestClient("conn-a", "user-alice", "Alice")
	bob := newTestClient("conn-b", "user-bob", "Bob")

	hub.JoinWebsite(alice, "site-1")
	hub.JoinWebsite(bob, "site-1")

	// Joining another workspace implicitly leaves the first.
	hub.JoinWebsite(alice, "site-2")

	require.NoError(t, hub.SendChat(context.Background(), bob, "site-1", "still here?"))

	assert.Empty(t, drainEvents(t, alice))
	require.Len(t, drainEvents(t, bob), 1)
}

package collab

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layoutsync/internal/app/layout"
	"layoutsync/internal/app/session"
)

// newTestRoom builds a room whose handlers are invoked directly, without
// the Run loop, so tests stay deterministic.
func newTestRoom(drafts layout.Store) *Room {
	return NewRoom("page-1", "site-1", make(chan RoomCleanupMsg, 1), drafts, time.Hour, 3*time.Second)
}

func newTestClient(connID, userID, userName string) *Client {
	return NewClient(nil, nil, session.Session{
		ConnectionID: connID,
		UserID:       userID,
		UserName:     userName,
		Color:        session.PresenceColor(userID),
		Role:         session.RoleEditor,
	})
}

// drainEvents empties the client's send queue into decoded events.
func drainEvents(t *testing.T, c *Client) []Event {
	t.Helper()

	var events []Event
	for {
		select {
		case data := <-c.send:
			var evt Event
			require.NoError(t, json.Unmarshal(data, &evt))
			events = append(events, evt)
		default:
			return events
		}
	}
}

// lastEventNamed returns the most recent event with the given name.
func lastEventNamed(t *testing.T, events []Event, name string) (Event, bool) {
	t.Helper()

	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Name == name {
			return events[i], true
		}
	}
	return Event{}, false
}

type failingDraftStore struct{}

func (failingDraftStore) Get(context.Context, string) (layout.Draft, error) {
	return layout.Draft{}, layout.ErrNotFound
}

func (failingDraftStore) Save(context.Context, layout.Draft) error {
	return errors.New("storage offline")
}

func TestRoomPresenceMatchesJoinsAndLeaves(t *testing.T) {
	room := newTestRoom(layout.NewMemoryStore())

	alice := newTestClient("conn-a", "user-alice", "Alice")
	bob := newTestClient("conn-b", "user-bob", "Bob")
	carol := newTestClient("conn-c", "user-carol", "Carol")

	room.handleRegister(alice)
	room.handleRegister(bob)
	room.handleRegister(carol)
	room.handleUnregister(bob)

	editors := room.Editors()
	require.Len(t, editors, 2)
	assert.Equal(t, "conn-a", editors[0].SessionID)
	assert.Equal(t, "conn-c", editors[1].SessionID)

	// The last broadcast every remaining member saw is the exact full list.
	for _, c := range []*Client{alice, carol} {
		events := drainEvents(t, c)
		evt, ok := lastEventNamed(t, events, EventEditorsUpdate)
		require.True(t, ok)

		var payload EditorsUpdatePayload
		require.NoError(t, json.Unmarshal(evt.Payload, &payload))
		assert.Equal(t, "page-1", payload.PageID)
		require.Len(t, payload.Editors, 2)
		assert.Equal(t, "Alice", payload.Editors[0].UserName)
		assert.Equal(t, "Carol", payload.Editors[1].UserName)
	}
}

func TestRoomRejoinReplacesMembership(t *testing.T) {
	room := newTestRoom(layout.NewMemoryStore())

	alice := newTestClient("conn-a", "user-alice", "Alice")
	room.handleRegister(alice)
	room.handleRegister(alice)

	assert.Len(t, room.Editors(), 1)
}

func TestRoomContentRelayIsWholeStateToOthersOnly(t *testing.T) {
	room := newTestRoom(layout.NewMemoryStore())

	alice := newTestClient("conn-a", "user-alice", "Alice")
	bob := newTestClient("conn-b", "user-bob", "Bob")
	carol := newTestClient("conn-c", "user-carol", "Carol")

	room.handleRegister(alice)
	room.handleRegister(bob)
	room.handleRegister(carol)

	// Clear join-time editor broadcasts.
	drainEvents(t, alice)
	drainEvents(t, bob)
	drainEvents(t, carol)

	m1 := []layout.Section{{ID: "hero", Type: "hero", Position: 0, Props: map[string]any{"title": "From Alice"}}}
	m2 := []layout.Section{{ID: "hero", Type: "hero", Position: 0, Props: map[string]any{"title": "From Bob"}}, {ID: "cta", Type: "cta", Position: 1}}

	room.handleContent(contentMsg{sender: alice, sections: m1})
	room.handleContent(contentMsg{sender: bob, sections: m2})

	// The sender never receives its own mutation back.
	aliceEvents := drainEvents(t, alice)
	require.Len(t, aliceEvents, 1)

	var toAlice ContentUpdatePayload
	require.NoError(t, json.Unmarshal(aliceEvents[0].Payload, &toAlice))
	assert.Equal(t, "user-bob", toAlice.AuthorID)
	assert.Len(t, toAlice.Sections, 2)

	// An observer settles on exactly one full payload, never a merge.
	carolEvents := drainEvents(t, carol)
	require.Len(t, carolEvents, 2)

	evt, ok := lastEventNamed(t, carolEvents, EventContentSend)
	require.True(t, ok)
	var final ContentUpdatePayload
	require.NoError(t, json.Unmarshal(evt.Payload, &final))
	assert.Equal(t, "user-bob", final.AuthorID)
	require.Len(t, final.Sections, 2)
	assert.Equal(t, "From Bob", final.Sections[0].Props["title"])

	// The room's draft-in-flight is the last writer's whole document.
	assert.True(t, room.draft.dirty)
	require.Len(t, room.draft.sections, 2)
	assert.Equal(t, "user-bob", room.draft.authorID)
}

func TestRoomCursorRelayCarriesIdentity(t *testing.T) {
	room := newTestRoom(layout.NewMemoryStore())

	alice := newTestClient("conn-a", "user-alice", "Alice")
	bob := newTestClient("conn-b", "user-bob", "Bob")

	room.handleRegister(alice)
	room.handleRegister(bob)
	drainEvents(t, alice)
	drainEvents(t, bob)

	room.handleCursor(cursorMsg{sender: alice, x: 0.5, y: 0.25})

	assert.Empty(t, drainEvents(t, alice))

	bobEvents := drainEvents(t, bob)
	require.Len(t, bobEvents, 1)
	assert.Equal(t, EventCursorUpdate, bobEvents[0].Name)

	var payload CursorUpdatePayload
	require.NoError(t, json.Unmarshal(bobEvents[0].Payload, &payload))
	assert.Equal(t, "user-alice", payload.UserID)
	assert.Equal(t, 0.5, payload.X)
	assert.Equal(t, 0.25, payload.Y)
	assert.Equal(t, session.PresenceColor("user-alice"), payload.Color)

	assert.Equal(t, 1, room.cursors.Len())
}

func TestRoomFocusRelayIsAdvisoryOnly(t *testing.T) {
	room := newTestRoom(layout.NewMemoryStore())

	alice := newTestClient("conn-a", "user-alice", "Alice")
	bob := newTestClient("conn-b", "user-bob", "Bob")

	room.handleRegister(alice)
	room.handleRegister(bob)
	drainEvents(t, alice)
	drainEvents(t, bob)

	room.handleFocus(focusMsg{sender: alice, sectionID: "hero"})

	// Focus never blocks a concurrent mutation from another member.
	room.handleContent(contentMsg{sender: bob, sections: []layout.Section{{ID: "hero", Type: "hero"}}})

	aliceEvents := drainEvents(t, alice)
	require.Len(t, aliceEvents, 1)
	assert.Equal(t, EventContentSend, aliceEvents[0].Name)

	bobEvents := drainEvents(t, bob)
	require.Len(t, bobEvents, 1)
	assert.Equal(t, EventSectionFocus, bobEvents[0].Name)
}

func TestRoomAutosaveTickPersistsDirtyDraft(t *testing.T) {
	store := layout.NewMemoryStore()
	room := newTestRoom(store)

	alice := newTestClient("conn-a", "user-alice", "Alice")
	room.handleRegister(alice)
	drainEvents(t, alice)

	sections := []layout.Section{{ID: "hero", Type: "hero", Position: 0}}
	room.handleContent(contentMsg{sender: alice, sections: sections})

	room.autosaveTick()

	draft, err := store.Get(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, "site-1", draft.WebsiteID)
	require.Len(t, draft.Sections, 1)
	assert.Equal(t, "hero", draft.Sections[0].ID)

	assert.False(t, room.draft.dirty)

	events := drainEvents(t, alice)
	_, ok := lastEventNamed(t, events, EventAutosaveSuccess)
	assert.True(t, ok)

	// A clean draft produces no further saves or confirmations.
	room.autosaveTick()
	assert.Empty(t, drainEvents(t, alice))
}

func TestRoomAutosaveTickSwallowsFailures(t *testing.T) {
	room := newTestRoom(failingDraftStore{})

	alice := newTestClient("conn-a", "user-alice", "Alice")
	room.handleRegister(alice)
	drainEvents(t, alice)

	room.handleContent(contentMsg{sender: alice, sections: []layout.Section{{ID: "hero"}}})
	room.autosaveTick()

	// The draft stays dirty so the next tick retries; nothing is emitted.
	assert.True(t, room.draft.dirty)
	assert.Empty(t, drainEvents(t, alice))
}

func TestRoomExplicitSaveSurfacesFailure(t *testing.T) {
	room := newTestRoom(failingDraftStore{})

	alice := newTestClient("conn-a", "user-alice", "Alice")
	room.handleRegister(alice)
	drainEvents(t, alice)

	room.handleAutosave(autosaveMsg{sender: alice, sections: []layout.Section{{ID: "hero"}}})

	events := drainEvents(t, alice)
	evt, ok := lastEventNamed(t, events, EventError)
	require.True(t, ok)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.NotZero(t, payload.Code)
}

func TestRoomExternalContentReachesEveryMember(t *testing.T) {
	room := newTestRoom(layout.NewMemoryStore())

	alice := newTestClient("conn-a", "user-alice", "Alice")
	bob := newTestClient("conn-b", "user-bob", "Bob")

	room.handleRegister(alice)
	room.handleRegister(bob)
	drainEvents(t, alice)
	drainEvents(t, bob)

	restored := []layout.Section{{ID: "hero", Type: "hero", Props: map[string]any{"title": "Version 1"}}}
	room.handleExternalContent(externalContentMsg{sections: restored, authorID: "user-owner"})

	// Rollback results refresh everyone, the initiator's session included.
	for _, c := range []*Client{alice, bob} {
		events := drainEvents(t, c)
		require.Len(t, events, 1)
		assert.Equal(t, EventContentSend, events[0].Name)

		var payload ContentUpdatePayload
		require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
		assert.Equal(t, "user-owner", payload.AuthorID)
	}

	// The restored draft was already persisted by the rollback path.
	assert.False(t, room.draft.dirty)
}

func TestRoomInactivityShutdownReleasesLateCallers(t *testing.T) {
	cleanup := make(chan RoomCleanupMsg, 1)
	room := NewRoom("page-1", "site-1", cleanup, layout.NewMemoryStore(), time.Hour, 3*time.Second)

	// An empty room's inactivity timer fires almost immediately.
	room.shutdownTimer.Reset(5 * time.Millisecond)
	go room.Run()

	select {
	case msg := <-cleanup:
		assert.Equal(t, "page-1", msg.PageID)
	case <-time.After(time.Second):
		t.Fatal("room loop did not notify the hub after going inactive")
	}

	// A client racing the teardown must not block on the dead room.
	late := newTestClient("conn-late", "user-late", "Latecomer")

	done := make(chan struct{})
	go func() {
		room.RegisterClient(late)
		room.UnregisterClient(late)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("register/unregister blocked on a room whose loop has ended")
	}

	events := drainEvents(t, late)
	_, ok := lastEventNamed(t, events, EventError)
	assert.True(t, ok)
}

func TestRoomUnregisterDropsLastSessionCursor(t *testing.T) {
	room := newTestRoom(layout.NewMemoryStore())

	tab1 := newTestClient("conn-1", "user-alice", "Alice")
	tab2 := newTestClient("conn-2", "user-alice", "Alice")

	room.handleRegister(tab1)
	room.handleRegister(tab2)
	room.handleCursor(cursorMsg{sender: tab1, x: 0.5, y: 0.5})

	// Another session of the same user keeps the cursor alive.
	room.handleUnregister(tab1)
	assert.Equal(t, 1, room.cursors.Len())

	room.handleUnregister(tab2)
	assert.Equal(t, 0, room.cursors.Len())
}

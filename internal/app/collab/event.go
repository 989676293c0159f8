/*
Package collab contains the real-time collaboration engine: the hub that
tracks page rooms and workspace chat scopes, the per-room actor loop that
serializes presence, cursor, and draft state, and the WebSocket client
lifecycle.

This file defines the wire protocol: named events with structured JSON
payloads. Both sides of the transport agree on these names.
*/
package collab

import (
	"encoding/json"
	"fmt"
	"time"

	"layoutsync/internal/app/chatlog"
	"layoutsync/internal/app/layout"
)

// Event names carried over the transport.
const (
	// Inbound (client to server).
	EventJoinWebsite  = "join:website"
	EventJoinPage     = "join:page"
	EventLeavePage    = "leave:page"
	EventContentSend  = "content:update"
	EventCursorMove   = "cursor:move"
	EventSectionFocus = "section:focus"
	EventAutosave     = "autosave"
	EventChatHistory  = "chat:history"
	EventChatSend     = "chat:send"

	// Outbound (server to client). content:update and section:focus are
	// relayed under their inbound names.
	EventEditorsUpdate   = "editors:update"
	EventCursorUpdate    = "cursor:update"
	EventAutosaveSuccess = "autosave:success"
	EventChatMessage     = "chat:message"
	EventError           = "error"
)

// Event is the wire envelope for every message on a connection.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeEvent marshals an event with its payload for the wire.
func EncodeEvent(name string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", name, err)
	}

	return json.Marshal(Event{Name: name, Payload: raw})
}

// Editor is one entry of the full presence list broadcast to a room.
type Editor struct {
	SessionID string `json:"sessionId"`
	UserName  string `json:"userName"`
	Color     string `json:"color"`
}

// JoinWebsitePayload enters a workspace's chat scope.
type JoinWebsitePayload struct {
	WebsiteID string `json:"websiteId"`
}

// JoinPagePayload enters a page's room, implicitly leaving any prior one.
type JoinPagePayload struct {
	PageID    string `json:"pageId"`
	WebsiteID string `json:"websiteId"`
}

// LeavePagePayload leaves a page's room.
type LeavePagePayload struct {
	PageID string `json:"pageId"`
}

// EditorsUpdatePayload carries the full, self-healing presence list.
type EditorsUpdatePayload struct {
	PageID  string   `json:"pageId"`
	Editors []Editor `json:"editors"`
}

// ContentUpdatePayload carries a whole-state layout mutation. Receivers
// install the section list wholesale; conflicts resolve last-write-wins
// at document granularity.
type ContentUpdatePayload struct {
	PageID   string           `json:"pageId"`
	Sections []layout.Section `json:"sections"`
	AuthorID string           `json:"authorId"`
}

// CursorMovePayload is an inbound cursor position, normalized to [0,1].
// Senders are expected to self-throttle to at most one update per 100ms;
// the bus does not enforce this.
type CursorMovePayload struct {
	PageID string  `json:"pageId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// CursorUpdatePayload is the outbound cursor relay to the other members.
type CursorUpdatePayload struct {
	PageID string  `json:"pageId"`
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Color  string  `json:"color"`
}

// SectionFocusPayload is the advisory soft lock: the sender currently has
// a section selected (empty SectionID clears it). Relayed verbatim; the
// server never locks or queues on its behalf.
type SectionFocusPayload struct {
	PageID    string `json:"pageId"`
	SectionID string `json:"sectionId,omitempty"`
	UserID    string `json:"userId"`
}

// AutosavePayload forces an immediate persist of the given draft.
type AutosavePayload struct {
	PageID   string           `json:"pageId"`
	Sections []layout.Section `json:"sections"`
}

// AutosaveSuccessPayload confirms a completed persist to the room.
type AutosaveSuccessPayload struct {
	PageID  string    `json:"pageId"`
	SavedAt time.Time `json:"savedAt"`
}

// ChatHistoryRequestPayload asks for the workspace's recent messages.
type ChatHistoryRequestPayload struct {
	WebsiteID string `json:"websiteId"`
	Limit     int    `json:"limit,omitempty"`
}

// ChatHistoryPayload answers a history request, oldest message first.
type ChatHistoryPayload struct {
	WebsiteID string            `json:"websiteId"`
	Messages  []chatlog.Message `json:"messages"`
}

// ChatSendPayload submits one chat message to the workspace.
type ChatSendPayload struct {
	WebsiteID string `json:"websiteId"`
	Message   string `json:"message"`
}

// ErrorPayload reports a business error to the offending client only.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

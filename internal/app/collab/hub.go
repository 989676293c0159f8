package collab

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"layoutsync/internal/app/chatlog"
	"layoutsync/internal/app/layout"
	"layoutsync/internal/configs"
	"layoutsync/internal/pkg/logx"
	"layoutsync/internal/pkg/randx"
)

// chatAppendTimeout bounds the durable append preceding a chat relay.
const chatAppendTimeout = 5 * time.Second

// Hub coordinates every active page room and workspace chat scope. It
// creates rooms on first join, removes them when their actor loops end,
// and routes rollback broadcasts and chat traffic.
type Hub struct {
	rooms      map[string]*Room
	workspaces map[string]*Workspace

	config *configs.AppConfig
	drafts layout.Store
	chat   chatlog.Store

	mu      sync.RWMutex
	cleanup chan RoomCleanupMsg
	wg      sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs the hub and starts its room-cleanup loop.
func NewHub(cfg *configs.AppConfig, drafts layout.Store, chat chatlog.Store) *Hub {
	h := &Hub{
		rooms:      make(map[string]*Room),
		workspaces: make(map[string]*Workspace),
		config:     cfg,
		drafts:     drafts,
		chat:       chat,
		cleanup:    make(chan RoomCleanupMsg, 16),
		logger:     logx.Logger().With().Str("component", "Hub").Logger(),
	}

	h.wg.Add(1)
	go h.runCleanupLoop()

	return h
}

// runCleanupLoop removes rooms whose actor loops have ended.
func (h *Hub) runCleanupLoop() {
	defer h.wg.Done()

	for msg := range h.cleanup {
		h.mu.Lock()
		if _, ok := h.rooms[msg.PageID]; ok {
			delete(h.rooms, msg.PageID)
			h.logger.Info().Str("page_id", msg.PageID).Msg("Room removed.")
		}
		h.mu.Unlock()
	}
}

// JoinPage moves the client into the page's room, implicitly leaving any
// room it previously occupied. A session belongs to at most one room.
func (h *Hub) JoinPage(client *Client, pageID, websiteID string) {
	if prev := client.room; prev != nil && prev.PageID != pageID {
		prev.UnregisterClient(client)
	}

	room := h.getOrCreateRoom(pageID, websiteID)
	client.room = room
	client.sess.CurrentPageID = pageID
	room.RegisterClient(client)
}

// LeavePage removes the client from the page's room, when it is a member.
func (h *Hub) LeavePage(client *Client, pageID string) {
	room := client.room
	if room == nil || room.PageID != pageID {
		return
	}

	room.UnregisterClient(client)
	client.room = nil
	client.sess.CurrentPageID = ""
}

// JoinWebsite enters the workspace's chat scope. Joining a different
// workspace leaves the previous one.
func (h *Hub) JoinWebsite(client *Client, websiteID string) {
	if prev := client.workspace; prev != nil && prev.WebsiteID != websiteID {
		h.leaveWorkspace(client, prev)
	}

	h.mu.Lock()
	ws, ok := h.workspaces[websiteID]
	if !ok {
		ws = newWorkspace(websiteID)
		h.workspaces[websiteID] = ws
	}
	h.mu.Unlock()

	ws.add(client)
	client.workspace = ws
	client.sess.CurrentWebsiteID = websiteID
}

// leaveWorkspace removes the client and tears the scope down when empty.
func (h *Hub) leaveWorkspace(client *Client, ws *Workspace) {
	if ws.remove(client) {
		h.mu.Lock()
		if current, ok := h.workspaces[ws.WebsiteID]; ok && current == ws {
			delete(h.workspaces, ws.WebsiteID)
		}
		h.mu.Unlock()
	}
	client.workspace = nil
	client.sess.CurrentWebsiteID = ""
}

// LeaveAll synthesizes the implicit leaves of a disconnect: the room and
// the workspace the session occupied stop delivering to it immediately.
func (h *Hub) LeaveAll(client *Client) {
	if room := client.room; room != nil {
		room.UnregisterClient(client)
		client.room = nil
	}
	if ws := client.workspace; ws != nil {
		h.leaveWorkspace(client, ws)
	}
}

// getOrCreateRoom returns the page's room, starting a new actor when none
// is running.
func (h *Hub) getOrCreateRoom(pageID, websiteID string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[pageID]; ok {
		return room
	}

	room := NewRoom(pageID, websiteID, h.cleanup, h.drafts, h.config.AutosaveInterval, h.config.CursorTTL)
	h.rooms[pageID] = room

	go room.Run()

	h.logger.Info().Str("page_id", pageID).Msg("Room created.")
	return room
}

// GetRoom returns the page's live room, or nil.
func (h *Hub) GetRoom(pageID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[pageID]
}

// BroadcastContent pushes an externally persisted draft (rollback) to the
// page's live room. A page without a room has no one to notify.
func (h *Hub) BroadcastContent(pageID string, sections []layout.Section, authorID string) {
	room := h.GetRoom(pageID)
	if room == nil {
		return
	}
	room.SubmitExternalContent(sections, authorID)
}

// FlushDraft persists the page's draft-in-flight, so an immediately
// following commit snapshots current state. No live room means nothing
// newer than the store's contents exists.
func (h *Hub) FlushDraft(ctx context.Context, pageID string) error {
	room := h.GetRoom(pageID)
	if room == nil {
		return nil
	}
	return room.SubmitFlush(ctx)
}

// SendChat appends the message to the durable log, then relays it to
// every connection in the workspace's chat scope, the sender's other
// connections included. A message empty after trimming is dropped
// silently: no append, no relay, no error.
func (h *Hub) SendChat(ctx context.Context, client *Client, websiteID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	msg := chatlog.Message{
		ID:        randx.MessageID(),
		WebsiteID: websiteID,
		UserID:    client.sess.UserID,
		UserName:  client.sess.UserName,
		Color:     client.sess.Color,
		Message:   text,
		CreatedAt: time.Now().UTC(),
	}

	appendCtx, cancel := context.WithTimeout(ctx, chatAppendTimeout)
	defer cancel()

	// Durable append first; the relay only carries messages the log holds.
	if err := h.chat.Append(appendCtx, msg); err != nil {
		return err
	}

	data, err := EncodeEvent(EventChatMessage, msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	ws := h.workspaces[websiteID]
	h.mu.RUnlock()

	if ws != nil {
		ws.BroadcastAll(data)
	}

	return nil
}

// ChatHistory returns at most limit of the workspace's newest messages,
// oldest-first.
func (h *Hub) ChatHistory(ctx context.Context, websiteID string, limit int) ([]chatlog.Message, error) {
	if limit <= 0 {
		limit = defaultChatHistoryLimit
	}
	if limit > maxChatHistoryLimit {
		limit = maxChatHistoryLimit
	}

	return h.chat.Recent(ctx, websiteID, limit)
}

const (
	defaultChatHistoryLimit = 50
	maxChatHistoryLimit     = 200
)

// Shutdown stops every room actor and the cleanup loop.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down hub...")

	h.mu.Lock()
	for _, room := range h.rooms {
		room.Stop()
	}
	h.rooms = nil
	h.workspaces = nil
	h.mu.Unlock()

	close(h.cleanup)
	h.wg.Wait()

	h.logger.Info().Msg("Hub shutdown complete.")
}

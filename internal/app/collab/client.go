package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"layoutsync/internal/app/session"
	"layoutsync/internal/pkg/errs"
	"layoutsync/internal/pkg/logx"
)

const (
	// writeWait is the deadline for a single WebSocket write.
	writeWait = 10 * time.Second

	// pongWait is the longest the server waits for a client heartbeat.
	pongWait = 60 * time.Second

	// pingPeriod is the server's heartbeat interval.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps an inbound frame. Layout payloads carry whole
	// section lists, so the cap is generous.
	maxMessageSize = 512 * 1024

	// sendQueueSize buffers outbound events per connection.
	sendQueueSize = 256
)

// Client is one authenticated WebSocket connection. Its session was
// validated by the gateway before the Client existed; the read pump
// dispatches inbound events, the write pump serializes outbound traffic
// so per-connection FIFO ordering holds.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	sess session.Session

	// room and workspace are only touched from the read pump's goroutine
	// (joins, leaves, and disconnect cleanup all originate there).
	room      *Room
	workspace *Workspace

	send      chan []byte
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewClient wraps an upgraded connection and its validated session.
func NewClient(hub *Hub, conn *websocket.Conn, sess session.Session) *Client {
	clientLogger := logx.Logger().With().
		Str("component", "Client").
		Str("session_id", sess.ConnectionID).
		Str("user_id", sess.UserID).
		Logger()

	return &Client{
		hub:    hub,
		conn:   conn,
		sess:   sess,
		send:   make(chan []byte, sendQueueSize),
		logger: clientLogger,
	}
}

// Session returns a copy of the connection's session.
func (c *Client) Session() session.Session {
	return c.sess
}

// ReadPump reads and dispatches inbound events until the connection
// drops, then performs the implicit leaves.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			}
			break
		}

		c.dispatch(messageBytes)
	}
}

// cleanupOnDisconnect turns a dropped connection into implicit leaves.
// Whole-state payloads make this safe: nothing partial is left behind.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	c.hub.LeaveAll(c)
	c.closeSend()

	if err := c.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Debug().Err(err).Msg("Connection close error")
	}
}

// dispatch routes one inbound frame by event name.
func (c *Client) dispatch(messageBytes []byte) {
	var evt Event
	if err := json.Unmarshal(messageBytes, &evt); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	switch evt.Name {
	case EventJoinWebsite:
		c.handleJoinWebsite(evt.Payload)

	case EventJoinPage:
		c.handleJoinPage(evt.Payload)

	case EventLeavePage:
		c.handleLeavePage(evt.Payload)

	case EventContentSend:
		c.handleContentUpdate(evt.Payload)

	case EventCursorMove:
		c.handleCursorMove(evt.Payload)

	case EventSectionFocus:
		c.handleSectionFocus(evt.Payload)

	case EventAutosave:
		c.handleAutosave(evt.Payload)

	case EventChatHistory:
		c.handleChatHistory(evt.Payload)

	case EventChatSend:
		c.handleChatSend(evt.Payload)

	default:
		c.logger.Warn().Str("event", evt.Name).Msg("Client sent unsupported event")
	}
}

func (c *Client) handleJoinWebsite(raw json.RawMessage) {
	var payload JoinWebsitePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.WebsiteID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	c.hub.JoinWebsite(c, payload.WebsiteID)
}

func (c *Client) handleJoinPage(raw json.RawMessage) {
	var payload JoinPagePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.PageID == "" || payload.WebsiteID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	c.hub.JoinPage(c, payload.PageID, payload.WebsiteID)
}

func (c *Client) handleLeavePage(raw json.RawMessage) {
	var payload LeavePagePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.PageID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	c.hub.LeavePage(c, payload.PageID)
}

// roomFor validates that the client occupies the room it is acting on.
func (c *Client) roomFor(pageID string) *Room {
	room := c.room
	if room == nil || room.PageID != pageID {
		c.SendError(errs.NewError(errs.ErrRoomNotJoined))
		return nil
	}
	return room
}

func (c *Client) handleContentUpdate(raw json.RawMessage) {
	var payload ContentUpdatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if !c.sess.Role.CanEdit() {
		c.SendError(errs.NewError(errs.ErrForbidden))
		return
	}

	room := c.roomFor(payload.PageID)
	if room == nil {
		return
	}

	select {
	case room.content <- contentMsg{sender: c, sections: payload.Sections}:
	default:
		c.logger.Warn().Msg("Room content channel full; mutation dropped.")
	}
}

func (c *Client) handleCursorMove(raw json.RawMessage) {
	var payload CursorMovePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}

	room := c.roomFor(payload.PageID)
	if room == nil {
		return
	}

	// Cursor traffic is disposable; a full channel just loses a frame.
	select {
	case room.cursor <- cursorMsg{sender: c, x: payload.X, y: payload.Y}:
	default:
	}
}

func (c *Client) handleSectionFocus(raw json.RawMessage) {
	var payload SectionFocusPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}

	room := c.roomFor(payload.PageID)
	if room == nil {
		return
	}

	select {
	case room.focus <- focusMsg{sender: c, sectionID: payload.SectionID}:
	default:
	}
}

func (c *Client) handleAutosave(raw json.RawMessage) {
	var payload AutosavePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if !c.sess.Role.CanEdit() {
		c.SendError(errs.NewError(errs.ErrForbidden))
		return
	}

	room := c.roomFor(payload.PageID)
	if room == nil {
		return
	}

	select {
	case room.autosave <- autosaveMsg{sender: c, sections: payload.Sections}:
	default:
		// An explicit save must not fail silently.
		c.SendError(errs.NewError(errs.ErrDraftSaveFailed))
	}
}

func (c *Client) handleChatHistory(raw json.RawMessage) {
	var payload ChatHistoryRequestPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.WebsiteID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	messages, err := c.hub.ChatHistory(context.Background(), payload.WebsiteID, payload.Limit)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to load chat history.")
		c.SendError(errs.NewError(errs.ErrUnknown, err))
		return
	}

	// History answers only the requester.
	c.sendEvent(EventChatHistory, ChatHistoryPayload{
		WebsiteID: payload.WebsiteID,
		Messages:  messages,
	})
}

func (c *Client) handleChatSend(raw json.RawMessage) {
	var payload ChatSendPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.WebsiteID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if err := c.hub.SendChat(context.Background(), c, payload.WebsiteID, payload.Message); err != nil {
		c.logger.Error().Err(err).Msg("Failed to send chat message.")
		c.SendError(errs.NewError(errs.ErrUnknown, err))
	}
}

// WritePump serializes outbound writes and heartbeats. It exits when the
// send channel closes or a write fails, closing the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued frame; false ends the pump.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends the heartbeat; false ends the pump.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// enqueue queues an outbound frame without blocking; false means the
// queue is full or the connection is closing.
func (c *Client) enqueue(data []byte) (queued bool) {
	defer func() {
		if recover() != nil {
			queued = false
		}
	}()

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// sendEvent encodes and queues a named event for this connection only.
func (c *Client) sendEvent(name string, payload any) {
	data, err := EncodeEvent(name, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event", name).Msg("Failed to encode event")
		return
	}

	if !c.enqueue(data) {
		c.logger.Warn().Str("event", name).Int("queue_len", len(c.send)).Msg("Send queue full, dropping event")
	}
}

// SendError reports a business error to this connection only. Errors are
// never broadcast.
func (c *Client) SendError(err error) {
	var code int
	var message string

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
	} else {
		code = errs.ErrUnknown
		message = "Something went wrong. Please try again."
	}

	c.sendEvent(EventError, ErrorPayload{Code: code, Message: message})
}

// closeSend ends outbound delivery exactly once.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

package collab

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"layoutsync/internal/app/layout"
	"layoutsync/internal/pkg/errs"
	"layoutsync/internal/pkg/logx"
)

const (
	// RoomInactivityTimeout is how long an empty room lingers before its
	// actor loop shuts down and the room is torn down.
	RoomInactivityTimeout = 5 * time.Minute

	// persistTimeout bounds each draft write issued by the room.
	persistTimeout = 5 * time.Second

	roomChannelBuffer = 256
)

// RoomCleanupMsg asks the hub to forget a room whose actor loop ended.
type RoomCleanupMsg struct {
	PageID string
}

// contentMsg is a whole-state mutation from a member.
type contentMsg struct {
	sender   *Client
	sections []layout.Section
}

// cursorMsg is a cursor refresh from a member.
type cursorMsg struct {
	sender *Client
	x, y   float64
}

// focusMsg is the advisory section-focus hint from a member.
type focusMsg struct {
	sender    *Client
	sectionID string
}

// autosaveMsg is an explicit, client-forced persist of the given draft.
type autosaveMsg struct {
	sender   *Client
	sections []layout.Section
}

// flushMsg asks the actor to persist the draft-in-flight now and report
// the outcome. Used by the commit path so a commit snapshots fresh state.
type flushMsg struct {
	reply chan error
}

// externalContentMsg installs and broadcasts a draft that was already
// persisted outside the room (rollback). Sent to every member, the
// initiator's session included.
type externalContentMsg struct {
	sections []layout.Section
	authorID string
}

// draftState is the room's layout draft in flight between persists.
type draftState struct {
	sections []layout.Section
	authorID string
	dirty    bool
}

// Room is the actor owning one page's collaboration state. All of its
// membership, cursor, and draft state is mutated only by the Run loop;
// the mutex exists solely for the read-only accessors called from
// outside the loop.
type Room struct {
	PageID    string
	WebsiteID string

	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	content    chan contentMsg
	cursor     chan cursorMsg
	focus      chan focusMsg
	autosave   chan autosaveMsg
	flush      chan flushMsg
	external   chan externalContentMsg

	cleanupChan chan<- RoomCleanupMsg
	stopChan    chan struct{}

	shutdownTimer *time.Timer
	cursorTimer   *time.Timer
	cursors       *cursorTracker
	draft         draftState

	drafts           layout.Store
	autosaveInterval time.Duration

	now func() time.Time

	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewRoom creates a room for the given page. The actor loop starts when
// the caller invokes Run.
func NewRoom(pageID, websiteID string, cleanupChan chan<- RoomCleanupMsg, drafts layout.Store, autosaveInterval, cursorTTL time.Duration) *Room {
	roomLogger := logx.Logger().With().
		Str("component", "Room").
		Str("page_id", pageID).
		Logger()

	cursorTimer := time.NewTimer(time.Hour)
	if !cursorTimer.Stop() {
		<-cursorTimer.C
	}

	return &Room{
		PageID:           pageID,
		WebsiteID:        websiteID,
		clients:          make(map[string]*Client),
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		content:          make(chan contentMsg, roomChannelBuffer),
		cursor:           make(chan cursorMsg, roomChannelBuffer),
		focus:            make(chan focusMsg, roomChannelBuffer),
		autosave:         make(chan autosaveMsg, 16),
		flush:            make(chan flushMsg),
		external:         make(chan externalContentMsg, 16),
		cleanupChan:      cleanupChan,
		stopChan:         make(chan struct{}),
		shutdownTimer:    time.NewTimer(RoomInactivityTimeout),
		cursorTimer:      cursorTimer,
		cursors:          newCursorTracker(cursorTTL),
		drafts:           drafts,
		autosaveInterval: autosaveInterval,
		now:              time.Now,
		logger:           roomLogger,
	}
}

// Stop terminates the Run loop immediately.
func (r *Room) Stop() {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
}

// Run is the room's actor loop. It serializes every mutation of the
// room's state; rooms for different pages run their loops in parallel.
func (r *Room) Run() {
	autosaveTicker := time.NewTicker(r.autosaveInterval)

	defer func() {
		autosaveTicker.Stop()
		r.shutdownTimer.Stop()
		r.cursorTimer.Stop()

		// Every exit path must release late callers blocked on the room's
		// channels, not just an explicit Stop.
		r.Stop()

		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Warn().Msg("Hub cleanup channel closed during room teardown.")
				}
			}()

			// The hub's cleanup loop always drains this channel; dropping
			// the notification would leave a dead room in the hub map.
			r.cleanupChan <- RoomCleanupMsg{PageID: r.PageID}
		}()

		r.mu.Lock()
		for _, client := range r.clients {
			client.closeSend()
		}
		r.clients = make(map[string]*Client)
		r.mu.Unlock()

		r.logger.Info().Msg("Room loop finished.")
	}()

	for {
		select {
		case client := <-r.register:
			r.handleRegister(client)

		case client := <-r.unregister:
			r.handleUnregister(client)

		case msg := <-r.content:
			r.handleContent(msg)

		case msg := <-r.cursor:
			r.handleCursor(msg)

		case msg := <-r.focus:
			r.handleFocus(msg)

		case msg := <-r.autosave:
			r.handleAutosave(msg)

		case msg := <-r.flush:
			msg.reply <- r.persistDraft()

		case msg := <-r.external:
			r.handleExternalContent(msg)

		case <-autosaveTicker.C:
			r.autosaveTick()

		case <-r.cursorTimer.C:
			r.expireCursors()

		case <-r.shutdownTimer.C:
			r.mu.RLock()
			empty := len(r.clients) == 0
			r.mu.RUnlock()

			if empty {
				r.logger.Info().Msgf("Room inactive for %s. Shutting down.", RoomInactivityTimeout)
				return
			}

		case <-r.stopChan:
			return
		}
	}
}

// handleRegister adds the client to the room, replacing any prior record
// for the same connection, and broadcasts the full editor list.
func (r *Room) handleRegister(client *Client) {
	r.mu.Lock()

	if _, ok := r.clients[client.sess.ConnectionID]; ok {
		r.logger.Debug().
			Str("session_id", client.sess.ConnectionID).
			Msg("Connection rejoined room; membership record replaced.")
	}
	// Keyed by session: a rejoin replaces, never duplicates.
	r.clients[client.sess.ConnectionID] = client

	if r.shutdownTimer.Stop() {
		select {
		case <-r.shutdownTimer.C:
		default:
		}
	}

	total := len(r.clients)
	r.mu.Unlock()

	r.logger.Info().
		Str("session_id", client.sess.ConnectionID).
		Str("user_id", client.sess.UserID).
		Int("total_editors", total).
		Msg("Editor joined room.")

	r.broadcastEditors()
}

// handleUnregister removes the client, drops its user's cursor when no
// other session of that user remains, and broadcasts the updated list.
func (r *Room) handleUnregister(client *Client) {
	r.mu.Lock()

	current, ok := r.clients[client.sess.ConnectionID]
	if !ok || current != client {
		r.mu.Unlock()
		if ok {
			r.logger.Info().
				Str("session_id", client.sess.ConnectionID).
				Msg("Ignoring unregister for stale connection.")
		}
		return
	}

	// The send channel stays open: the connection may join another room.
	delete(r.clients, client.sess.ConnectionID)

	userStillPresent := false
	for _, c := range r.clients {
		if c.sess.UserID == client.sess.UserID {
			userStillPresent = true
			break
		}
	}

	empty := len(r.clients) == 0
	total := len(r.clients)
	r.mu.Unlock()

	if !userStillPresent {
		r.cursors.Remove(client.sess.UserID)
	}

	r.logger.Info().
		Str("session_id", client.sess.ConnectionID).
		Int("total_editors", total).
		Msg("Editor left room.")

	if empty {
		if r.shutdownTimer.Stop() {
			select {
			case <-r.shutdownTimer.C:
			default:
			}
		}
		r.shutdownTimer.Reset(RoomInactivityTimeout)
		return
	}

	r.broadcastEditors()
}

// handleContent installs the whole-state mutation as the draft-in-flight
// and relays it to every other member. Whoever's payload lands last wins
// wholesale; the room never merges.
func (r *Room) handleContent(msg contentMsg) {
	r.draft = draftState{
		sections: msg.sections,
		authorID: msg.sender.sess.UserID,
		dirty:    true,
	}

	payload := ContentUpdatePayload{
		PageID:   r.PageID,
		Sections: msg.sections,
		AuthorID: msg.sender.sess.UserID,
	}

	data, err := EncodeEvent(EventContentSend, payload)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode content update.")
		return
	}

	r.relayToOthers(msg.sender.sess.ConnectionID, data)
}

// handleCursor records the refresh, re-arms the expiry timer, and relays
// the position to the other members.
func (r *Room) handleCursor(msg cursorMsg) {
	r.cursors.Touch(msg.sender.sess.UserID, msg.x, msg.y, r.now())
	r.armCursorTimer()

	payload := CursorUpdatePayload{
		PageID: r.PageID,
		UserID: msg.sender.sess.UserID,
		X:      msg.x,
		Y:      msg.y,
		Color:  msg.sender.sess.Color,
	}

	data, err := EncodeEvent(EventCursorUpdate, payload)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode cursor update.")
		return
	}

	r.relayToOthers(msg.sender.sess.ConnectionID, data)
}

// handleFocus relays the advisory soft lock verbatim. No server-side
// locking or queueing happens on its behalf.
func (r *Room) handleFocus(msg focusMsg) {
	payload := SectionFocusPayload{
		PageID:    r.PageID,
		SectionID: msg.sectionID,
		UserID:    msg.sender.sess.UserID,
	}

	data, err := EncodeEvent(EventSectionFocus, payload)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode section focus.")
		return
	}

	r.relayToOthers(msg.sender.sess.ConnectionID, data)
}

// handleAutosave is the explicit save path: install the submitted draft,
// persist immediately, and surface a failure to the requesting client.
func (r *Room) handleAutosave(msg autosaveMsg) {
	r.draft = draftState{
		sections: msg.sections,
		authorID: msg.sender.sess.UserID,
		dirty:    true,
	}

	if err := r.persistDraft(); err != nil {
		r.logger.Error().Err(err).Msg("Explicit save failed.")
		msg.sender.SendError(errs.NewError(errs.ErrDraftSaveFailed))
		return
	}

	r.broadcastSaved()
}

// handleExternalContent installs an already-persisted draft (rollback)
// and broadcasts it to the whole room so every collaborator refreshes.
func (r *Room) handleExternalContent(msg externalContentMsg) {
	r.draft = draftState{
		sections: msg.sections,
		authorID: msg.authorID,
		dirty:    false,
	}

	payload := ContentUpdatePayload{
		PageID:   r.PageID,
		Sections: msg.sections,
		AuthorID: msg.authorID,
	}

	data, err := EncodeEvent(EventContentSend, payload)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode rollback broadcast.")
		return
	}

	r.broadcastAll(data)
}

// autosaveTick is the best-effort periodic persist. A failed write is
// logged and swallowed; the draft stays dirty and the next tick retries.
func (r *Room) autosaveTick() {
	if !r.draft.dirty {
		return
	}

	if err := r.persistDraft(); err != nil {
		r.logger.Warn().Err(err).Msg("Autosave tick failed; will retry next tick.")
		return
	}

	r.broadcastSaved()
}

// persistDraft writes the draft-in-flight when dirty. The write completes
// before any notification about it is emitted.
func (r *Room) persistDraft() error {
	if !r.draft.dirty {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	draft := layout.Draft{
		PageID:    r.PageID,
		WebsiteID: r.WebsiteID,
		Sections:  layout.CloneSections(r.draft.sections),
		UpdatedAt: r.now().UTC(),
	}

	if err := r.drafts.Save(ctx, draft); err != nil {
		return err
	}

	r.draft.dirty = false
	return nil
}

// broadcastSaved announces a completed persist to the room.
func (r *Room) broadcastSaved() {
	data, err := EncodeEvent(EventAutosaveSuccess, AutosaveSuccessPayload{
		PageID:  r.PageID,
		SavedAt: r.now().UTC(),
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode autosave confirmation.")
		return
	}

	r.broadcastAll(data)
}

// expireCursors purges overdue cursors and re-arms the timer for the
// next deadline, if any cursors remain.
func (r *Room) expireCursors() {
	expired := r.cursors.ExpireBefore(r.now())
	if len(expired) > 0 {
		r.logger.Debug().Strs("user_ids", expired).Msg("Cursors expired.")
	}
	r.armCursorTimer()
}

// armCursorTimer points the single expiry timer at the tracker's nearest
// deadline.
func (r *Room) armCursorTimer() {
	if r.cursorTimer.Stop() {
		select {
		case <-r.cursorTimer.C:
		default:
		}
	}

	deadline, ok := r.cursors.NextDeadline()
	if !ok {
		return
	}

	wait := deadline.Sub(r.now())
	if wait < 0 {
		wait = 0
	}
	r.cursorTimer.Reset(wait)
}

// broadcastEditors sends the full presence list to every member. Full
// state makes the protocol self-healing: a missed update is corrected by
// the next one without client-side merging.
func (r *Room) broadcastEditors() {
	payload := EditorsUpdatePayload{
		PageID:  r.PageID,
		Editors: r.Editors(),
	}

	data, err := EncodeEvent(EventEditorsUpdate, payload)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode editors update.")
		return
	}

	r.broadcastAll(data)
}

// Editors returns the current presence list, ordered by session ID for a
// stable wire representation.
func (r *Room) Editors() []Editor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	editors := make([]Editor, 0, len(r.clients))
	for _, c := range r.clients {
		editors = append(editors, Editor{
			SessionID: c.sess.ConnectionID,
			UserName:  c.sess.UserName,
			Color:     c.sess.Color,
		})
	}

	sort.Slice(editors, func(i, j int) bool { return editors[i].SessionID < editors[j].SessionID })
	return editors
}

// relayToOthers fans the payload out to every member except the sender.
// A member whose queue is full is disconnected rather than awaited.
func (r *Room) relayToOthers(senderSessionID string, data []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, client := range r.clients {
		if client.sess.ConnectionID == senderSessionID {
			continue
		}
		r.deliver(client, data)
	}
}

// broadcastAll fans the payload out to every member, sender included.
func (r *Room) broadcastAll(data []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, client := range r.clients {
		r.deliver(client, data)
	}
}

// deliver enqueues without blocking; a slow consumer is unregistered so
// one stalled connection cannot wedge the room.
func (r *Room) deliver(client *Client, data []byte) {
	if client.enqueue(data) {
		return
	}

	r.logger.Warn().
		Str("session_id", client.sess.ConnectionID).
		Msg("Send queue full or closed; disconnecting client.")

	// A wedged queue means a dead or hopelessly slow connection. Closing
	// the send channel ends its write pump; the read pump's cleanup then
	// performs the implicit leaves.
	client.closeSend()

	select {
	case r.unregister <- client:
	default:
		r.logger.Warn().Msg("Unregister channel full; skipping slow client cleanup.")
	}
}

// RegisterClient queues the client for membership without blocking.
func (r *Room) RegisterClient(client *Client) {
	select {
	case r.register <- client:
	case <-r.stopChan:
		client.SendError(errs.NewError(errs.ErrUnknown))
	}
}

// UnregisterClient queues the client's removal without blocking the caller
// forever; a stopped room cleans up in its own teardown.
func (r *Room) UnregisterClient(client *Client) {
	select {
	case r.unregister <- client:
	case <-r.stopChan:
	}
}

// SubmitFlush persists the draft-in-flight and reports the result. Used
// before snapshotting a commit.
func (r *Room) SubmitFlush(ctx context.Context) error {
	reply := make(chan error, 1)

	select {
	case r.flush <- flushMsg{reply: reply}:
	case <-r.stopChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitExternalContent queues a rollback result for installation and
// broadcast.
func (r *Room) SubmitExternalContent(sections []layout.Section, authorID string) {
	select {
	case r.external <- externalContentMsg{sections: sections, authorID: authorID}:
	case <-r.stopChan:
	}
}

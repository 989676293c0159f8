package version

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"layoutsync/internal/app/layout"
	"layoutsync/internal/app/session"
	"layoutsync/internal/pkg/errs"
	"layoutsync/internal/pkg/logx"
	"layoutsync/internal/pkg/randx"
)

// Broadcaster pushes a rolled-back draft to a page's live room so online
// collaborators refresh immediately. A page with no active room is a no-op.
type Broadcaster interface {
	BroadcastContent(pageID string, sections []layout.Section, authorID string)
}

// Service coordinates commits and rollbacks between the commit log, the
// draft store, and the live room, and enforces the write-then-notify
// ordering: persistence completes before any broadcast is emitted.
type Service struct {
	commits Store
	drafts  layout.Store
	rooms   Broadcaster
	logger  zerolog.Logger
}

// NewService wires a Service. rooms may be nil when no live relay exists
// (tests, offline tooling).
func NewService(commits Store, drafts layout.Store, rooms Broadcaster) *Service {
	return &Service{
		commits: commits,
		drafts:  drafts,
		rooms:   rooms,
		logger:  logx.Logger().With().Str("component", "VersionService").Logger(),
	}
}

// CreateCommit snapshots the page's persisted draft under the next
// version number. Callers must ensure a save precedes the commit; the
// snapshot is whatever the draft store currently holds.
func (s *Service) CreateCommit(ctx context.Context, pageID, message string, author session.Session) (Commit, *errs.CustomError) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Commit{}, errs.NewError(errs.ErrCommitMessageEmpty)
	}

	draft, err := s.drafts.Get(ctx, pageID)
	if err != nil {
		if errors.Is(err, layout.ErrNotFound) {
			return Commit{}, errs.NewError(errs.ErrPageNotFound)
		}
		s.logger.Error().Err(err).Str("page_id", pageID).Msg("Failed to load draft for commit.")
		return Commit{}, errs.NewError(errs.ErrUnknown, err)
	}

	now := time.Now().UTC()
	commit := Commit{
		ID:         randx.CommitID(now),
		WebsiteID:  draft.WebsiteID,
		PageID:     pageID,
		Message:    message,
		AuthorID:   author.UserID,
		AuthorName: author.UserName,
		Snapshot:   layout.CloneSections(draft.Sections),
		CreatedAt:  now,
	}

	stored, err := s.commits.Create(ctx, commit)
	if err != nil {
		s.logger.Error().Err(err).Str("page_id", pageID).Msg("Failed to append commit.")
		return Commit{}, errs.NewError(errs.ErrUnknown, err)
	}

	s.logger.Info().
		Str("page_id", pageID).
		Str("commit_id", stored.ID).
		Int("version", stored.Version).
		Msg("Commit created.")

	return stored, nil
}

// ListCommits returns the page's history, newest version first.
func (s *Service) ListCommits(ctx context.Context, pageID string) ([]Commit, *errs.CustomError) {
	commits, err := s.commits.ListByPage(ctx, pageID)
	if err != nil {
		s.logger.Error().Err(err).Str("page_id", pageID).Msg("Failed to list commits.")
		return nil, errs.NewError(errs.ErrUnknown, err)
	}
	return commits, nil
}

// Rollback replaces the page's persisted draft with a deep copy of the
// commit's snapshot. It creates no commit and leaves the version counter
// untouched. Restricted to roles with rollback capability; refused with
// no mutation and no broadcast otherwise. After the write succeeds the
// new draft is re-broadcast to the page's room, if one is live.
func (s *Service) Rollback(ctx context.Context, pageID, commitID string, caller session.Session) (Commit, *errs.CustomError) {
	if !caller.Role.CanRollback() {
		return Commit{}, errs.NewError(errs.ErrForbidden)
	}

	commit, err := s.commits.Get(ctx, pageID, commitID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Commit{}, errs.NewError(errs.ErrCommitNotFound)
		}
		s.logger.Error().Err(err).Str("page_id", pageID).Str("commit_id", commitID).Msg("Failed to load commit for rollback.")
		return Commit{}, errs.NewError(errs.ErrUnknown, err)
	}

	restored := layout.Draft{
		PageID:    pageID,
		WebsiteID: commit.WebsiteID,
		Sections:  layout.CloneSections(commit.Snapshot),
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.drafts.Save(ctx, restored); err != nil {
		s.logger.Error().Err(err).Str("page_id", pageID).Str("commit_id", commitID).Msg("Rollback draft write failed.")
		return Commit{}, errs.NewError(errs.ErrDraftSaveFailed)
	}

	// Write-then-notify: the broadcast only happens once the draft is durable.
	if s.rooms != nil {
		s.rooms.BroadcastContent(pageID, layout.CloneSections(commit.Snapshot), caller.UserID)
	}

	s.logger.Info().
		Str("page_id", pageID).
		Str("commit_id", commit.ID).
		Int("version", commit.Version).
		Str("user_id", caller.UserID).
		Msg("Page rolled back.")

	return commit, nil
}

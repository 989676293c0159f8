package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"layoutsync/internal/app/session"
	"layoutsync/internal/pkg/auth/jwt"
	"layoutsync/internal/pkg/errs"
	"layoutsync/internal/pkg/req"
	"layoutsync/internal/pkg/resp"
)

// sessionFromClaims builds the caller identity the version service needs.
func sessionFromClaims(claims *jwt.Claims) session.Session {
	return session.Session{
		UserID:   claims.UserID,
		UserName: claims.UserName,
		Color:    session.PresenceColor(claims.UserID),
		Role:     claims.Role,
	}
}

// CreateCommitInput is the request body for creating a commit.
type CreateCommitInput struct {
	Message string `json:"message"`
}

// HandleCreateCommit persists the room's draft-in-flight, then snapshots
// the persisted draft as a new commit. An explicit commit never fails
// silently: a save failure is surfaced so the user can retry.
func HandleCreateCommit(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.ClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		if !claims.Role.CanEdit() {
			resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
			return
		}

		pageID := chi.URLParam(r, "pageID")
		if pageID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input CreateCommitInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		// A commit captures persisted state; flush the live draft first.
		if err := deps.Hub.FlushDraft(r.Context(), pageID); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrDraftSaveFailed))
			return
		}

		commit, customErr := deps.Versions.CreateCommit(r.Context(), pageID, input.Message, sessionFromClaims(claims))
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, commit)
	}
}

// HandleListCommits returns the page's history, newest version first.
func HandleListCommits(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "pageID")
		if pageID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		commits, customErr := deps.Versions.ListCommits(r.Context(), pageID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"pageId":  pageID,
			"commits": commits,
		})
	}
}

// RollbackInput is the request body for rolling a page back.
type RollbackInput struct {
	CommitID string `json:"commitId"`
}

// HandleRollback restores a commit's snapshot as the page's draft. Role
// checks happen inside the version service; the handler only shapes the
// request and response.
func HandleRollback(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.ClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		pageID := chi.URLParam(r, "pageID")
		if pageID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input RollbackInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.CommitID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		commit, customErr := deps.Versions.Rollback(r.Context(), pageID, input.CommitID, sessionFromClaims(claims))
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"pageId":   pageID,
			"commitId": commit.ID,
			"version":  commit.Version,
			"sections": commit.Snapshot,
		})
	}
}

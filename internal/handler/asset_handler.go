package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"layoutsync/internal/app/assets"
	"layoutsync/internal/pkg/auth/jwt"
	"layoutsync/internal/pkg/errs"
	"layoutsync/internal/pkg/req"
	"layoutsync/internal/pkg/resp"
)

// PresignUploadInput is the request body for a media upload URL.
type PresignUploadInput struct {
	WebsiteID string `json:"websiteId"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	FileSize  int64  `json:"fileSize"`
}

// HandlePresignUpload validates the media file and signs an upload URL.
// Keys are namespaced under the workspace so downloads can be scoped.
func HandlePresignUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PresignUploadInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.WebsiteID == "" || input.FileName == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if customErr := assets.ValidateFileSize(input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := assets.ValidateFileType(input.FileName, input.MimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		ext := strings.ToLower(filepath.Ext(input.FileName))
		key := fmt.Sprintf("%s/%s%s", input.WebsiteID, uuid.New().String(), ext)

		url, err := deps.Assets.PresignUpload(r.Context(), key, strings.ToLower(input.MimeType), input.FileSize, assets.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"key":       key,
			"uploadUrl": url,
		})
	}
}

// HandleDeleteAsset removes a workspace-scoped media file, for when a
// section that referenced it is dropped from the layout.
func HandleDeleteAsset(deps *AppDeps) http.HandlerFunc {
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

		key := r.URL.Query().Get("key")
		websiteID := r.URL.Query().Get("websiteId")

		if key == "" || websiteID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !strings.HasPrefix(key, websiteID+"/") || strings.Contains(key, "..") {
			resp.RespondError(w, r, errs.NewError(errs.ErrAssetKeyInvalid))
			return
		}

		if err := deps.Assets.Delete(r.Context(), key); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"key": key,
		})
	}
}

// HandlePresignDownload signs a download URL for a workspace-scoped key.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		websiteID := r.URL.Query().Get("websiteId")

		if key == "" || websiteID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		// Keys outside the named workspace are refused outright.
		if !strings.HasPrefix(key, websiteID+"/") || strings.Contains(key, "..") {
			resp.RespondError(w, r, errs.NewError(errs.ErrAssetKeyInvalid))
			return
		}

		url, err := deps.Assets.PresignDownload(r.Context(), key, assets.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"downloadUrl": url,
		})
	}
}

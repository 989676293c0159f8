/*
Package req provides helpers for HTTP request body binding.

BindJSON enforces strict JSON decoding: the Content-Type must be JSON,
unknown fields are rejected, and trailing content after the document is
an error.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"layoutsync/internal/pkg/errs"
)

// BindJSON decodes the request body into dst with strict validation.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

/*
Package errs defines the application's error taxonomy.

Every failure surfaced to a caller is a CustomError carrying a stable
business code, a client-safe message, and the HTTP status used when the
error travels over the REST surface. WebSocket handlers reuse the same
codes inside error events.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"layoutsync/internal/pkg/logx"
)

// CustomError is the error type used throughout the service.
type CustomError struct {
	// Code is the stable business error code (see error_codes.go).
	Code int

	// Message is the client-facing description.
	Message string

	// Status is the HTTP status code used on the REST surface.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds a *CustomError from a predefined code. Optional details
// are applied printf-style when the message template has placeholders.
// Unknown codes degrade to ErrUnknown rather than panicking.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Details provided for error, but message template has no formatting placeholders. Details ignored.")
		}
	}

	return &customErr
}

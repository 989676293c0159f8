package errs

import "net/http"

// errorMap holds the CustomError template for every business code. A zero
// Status defaults to 200 so errors can also ride inside WS error events.
var errorMap = map[int]CustomError{
	// 1xxx: request handling and validation errors.
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: collaboration and versioning business errors.
	ErrCommitMessageEmpty: {Code: ErrCommitMessageEmpty, Message: "Commit message cannot be empty.", Status: http.StatusBadRequest},
	ErrCommitNotFound:     {Code: ErrCommitNotFound, Message: "Version not found for this page.", Status: http.StatusNotFound},
	ErrPageNotFound:       {Code: ErrPageNotFound, Message: "Page not found.", Status: http.StatusNotFound},
	ErrDraftSaveFailed:    {Code: ErrDraftSaveFailed, Message: "Failed to save the page. Please try again.", Status: http.StatusBadGateway},
	ErrRoomNotJoined:      {Code: ErrRoomNotJoined, Message: "Join the page before editing it."},
	ErrAssetTypeInvalid:   {Code: ErrAssetTypeInvalid, Message: "This file type is not supported.", Status: http.StatusBadRequest},
	ErrAssetTooLarge:      {Code: ErrAssetTooLarge, Message: "File is too large.", Status: http.StatusBadRequest},
	ErrAssetKeyInvalid:    {Code: ErrAssetKeyInvalid, Message: "Invalid file reference.", Status: http.StatusBadRequest},

	// 3xxx: authentication and authorization errors.
	ErrUnauthenticated: {Code: ErrUnauthenticated, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrForbidden:       {Code: ErrForbidden, Message: "You do not have permission to do that.", Status: http.StatusForbidden},

	// 5xxx: internal errors.
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}

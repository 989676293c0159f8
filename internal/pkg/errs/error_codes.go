package errs

// 1xxx: request handling and validation errors.
const (
	// ErrInvalidParams indicates request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates an unsupported Content-Type header.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates a malformed JSON request body.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing data after the JSON body.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates the caller exceeded the request rate limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: collaboration and versioning business errors.
const (
	// ErrCommitMessageEmpty indicates a commit message that is empty after trimming.
	ErrCommitMessageEmpty = 2101

	// ErrCommitNotFound indicates the commit does not exist for the given page.
	ErrCommitNotFound = 2102

	// ErrPageNotFound indicates no layout draft exists for the given page.
	ErrPageNotFound = 2103

	// ErrDraftSaveFailed indicates an explicit save or rollback write failed.
	ErrDraftSaveFailed = 2104

	// ErrRoomNotJoined indicates the connection acted on a page it never joined.
	ErrRoomNotJoined = 2105

	// ErrAssetTypeInvalid indicates a media file type that is not allowed.
	ErrAssetTypeInvalid = 2201

	// ErrAssetTooLarge indicates a media file exceeding the size limit.
	ErrAssetTooLarge = 2202

	// ErrAssetKeyInvalid indicates an asset key outside the caller's workspace.
	ErrAssetKeyInvalid = 2203
)

// 3xxx: authentication and authorization errors.
const (
	// ErrUnauthenticated indicates a missing, invalid, or expired bearer credential.
	ErrUnauthenticated = 3001

	// ErrForbidden indicates the caller's role does not permit the operation.
	ErrForbidden = 3002
)

// 5xxx: internal errors.
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)

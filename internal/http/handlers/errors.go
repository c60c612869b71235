package handlers

// Error codes returned in ErrorResponse.Code. Clients branch on these, so
// values are stable snake_case strings; messages may change freely.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "rate_limited" // also written by middleware.RateLimiter
	ErrCodeInternal         = "internal_error"

	// Invite and survey state.
	ErrCodeAlreadyResolved = "already_resolved"
	ErrCodeDuplicateAnswer = "duplicate_answer"

	// Storage failures on write and read paths.
	ErrCodeCreateFailed = "create_failed"
	ErrCodeListFailed   = "list_failed"
)

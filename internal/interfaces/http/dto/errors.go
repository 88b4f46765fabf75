package dto

import (
	"net/http"
	"strings"
)

// Transport error codes raised by handlers and middleware.
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeUnauthorized    = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired    = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "ERR_TOKEN_INVALID"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeConfirmRequired = "ERR_CONFIRMATION_REQUIRED"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Domain codes
// that are not listed fall back to the suffix and prefix rules in
// GetHTTPStatus.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeConfirmRequired: http.StatusBadRequest,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// settings and key/value store
	"STORAGE_WRITE_FAILED":     http.StatusInsufficientStorage,
	"INVALID_FORMAT":           http.StatusBadRequest,
	"UNKNOWN_SETTINGS_SECTION": http.StatusBadRequest,
	"UNKNOWN_SETTINGS_FIELD":   http.StatusBadRequest,
	"INVALID_SETTING_VALUE":    http.StatusUnprocessableEntity,
	"BACKUPS_DISABLED":         http.StatusServiceUnavailable,

	// organization
	"HEADQUARTERS_EXISTS":   http.StatusUnprocessableEntity,
	"BRANCH_NOT_IN_COMPANY": http.StatusUnprocessableEntity,
	"INVALID_STATE":         http.StatusUnprocessableEntity,
	"CONCURRENCY_CONFLICT":  http.StatusConflict,

	// operator login
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"ACCOUNT_LOCKED":      http.StatusLocked,
	"UNAUTHORIZED":        http.StatusUnauthorized,
	"FORBIDDEN":           http.StatusForbidden,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unlisted codes ending in NOT_FOUND map to 404, codes ending in EXISTS
// to 409 and codes starting with INVALID_ to 400. Anything else is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_EXISTS"):
		return http.StatusConflict
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

package models

// APIError represents a standardized error response for the API
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error code constants
const (
	// General errors
	ErrBadRequest       = "BAD_REQUEST"
	ErrUnauthorized     = "UNAUTHORIZED"
	ErrForbidden        = "FORBIDDEN"
	ErrNotFound         = "NOT_FOUND"
	ErrConflict         = "CONFLICT"
	ErrInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrValidationFailed = "VALIDATION_FAILED"
	ErrTooManyRequests  = "TOO_MANY_REQUESTS"

	// Community-specific errors
	ErrPostNotFound      = "POST_NOT_FOUND"
	ErrPostInvalidData   = "POST_INVALID_DATA"
	ErrNoticeAdminOnly   = "NOTICE_ADMIN_ONLY"
	ErrGoogleReauthorize = "GOOGLE_REAUTHORIZE"
)

// NewAPIError creates a new API error with the given code and message
func NewAPIError(code, message string, details ...map[string]interface{}) APIError {
	err := APIError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// DetailError is the error body returned by the /auth routes
type DetailError struct {
	Detail string `json:"detail"`
}

// NewDetailError creates a detail-only error payload
func NewDetailError(detail string) DetailError {
	return DetailError{Detail: detail}
}

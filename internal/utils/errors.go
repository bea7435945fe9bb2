package utils

import "fmt"

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"

	// Authentication/Authorization errors
	ErrUnauthorized = "UNAUTHORIZED"
	ErrForbidden    = "FORBIDDEN" // User is authenticated but doesn't have permission
	ErrInvalidToken = "INVALID_TOKEN"

	// User-specific errors
	ErrUserNotFound       = "USER_NOT_FOUND"
	ErrUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"

	// Social errors
	ErrRequestPending   = "REQUEST_PENDING"
	ErrAlreadyFriends   = "ALREADY_FRIENDS"
	ErrAlreadyFollowing = "ALREADY_FOLLOWING"

	// Content errors
	ErrStoryNotFound  = "STORY_NOT_FOUND"
	ErrQueryNotReady  = "QUERY_NOT_READY" // Required query parameter missing or below threshold
	ErrContentBackend = "CONTENT_BACKEND_ERROR"

	// Actor communication errors
	ErrActorTimeout    = "ACTOR_TIMEOUT"
	ErrActorNotFound   = "ACTOR_NOT_FOUND"
	ErrMessageRejected = "MESSAGE_REJECTED"

	// Rate limiting
	ErrTooManyRequests = "TOO_MANY_REQUESTS"

	ErrDatabase = "database_error"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

// Specific error creators for common cases
func NewUserNotFoundError(userId string) *AppError {
	return &AppError{
		Code:    ErrUserNotFound,
		Message: "User not found: " + userId,
	}
}

func NewUnauthorizedError() *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "Authentication required",
	}
}

func NewStoryNotFoundError(storyID string) *AppError {
	return &AppError{
		Code:    ErrStoryNotFound,
		Message: "Story not found: " + storyID,
	}
}

func NewRequestPendingError() *AppError {
	return &AppError{
		Code:    ErrRequestPending,
		Message: "Request already pending",
	}
}

func NewActorTimeoutError(actorName string) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
	}
}

func NewInvalidRatingError(rating int) *AppError {
	return &AppError{
		Code:    ErrInvalidInput,
		Message: fmt.Sprintf("Rating must be between 1 and 5, got %d", rating),
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// Helper method to check if an error is related to authentication
func IsAuthError(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrUnauthorized ||
			appErr.Code == ErrForbidden ||
			appErr.Code == ErrInvalidToken
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrUserNotFound, ErrStoryNotFound, ErrActorNotFound:
		return 404 // http.StatusNotFound
	case ErrInvalidInput, ErrInvalidCredentials, ErrQueryNotReady:
		return 400 // http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidToken:
		return 401 // http.StatusUnauthorized
	case ErrForbidden:
		return 403 // http.StatusForbidden
	case ErrDuplicate, ErrUserAlreadyExists, ErrRequestPending, ErrAlreadyFriends, ErrAlreadyFollowing:
		return 409 // http.StatusConflict
	case ErrTooManyRequests:
		return 429 // http.StatusTooManyRequests
	case ErrDatabase, ErrContentBackend, ErrActorTimeout, ErrMessageRejected:
		return 500 // http.StatusInternalServerError
	default:
		return 500 // http.StatusInternalServerError for unknown errors
	}
}

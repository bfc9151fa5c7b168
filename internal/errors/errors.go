package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrEmailTaken is returned when signup hits an existing normalized email.
	ErrEmailTaken = errors.New("email address already registered")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrWrongPassword is returned when the current password does not match.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrUnauthorized is returned when no usable bearer token was presented.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAccountDeactivated is returned when a deactivated account logs in.
	ErrAccountDeactivated = errors.New("account has been deactivated")
	// ErrForbidden is returned when a caller acts on another user's record.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound is returned when no record has the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrBusy is returned when the store critical section could not be acquired in time.
	ErrBusy = errors.New("service busy")
)

// ValidationError reports malformed or missing input. Message is safe to
// show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new validation error.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ErrorResponse is the JSON envelope shared by every API response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: e.Message,
	}
}

// Messages returned to callers. Credential failures share one text so the
// response does not reveal whether an email is registered.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgEmailTaken         = "Email address already registered"
	MsgDeactivated        = "This account has been deactivated"
	MsgWrongPassword      = "Current password is incorrect"
	MsgUserNotFound       = "User not found"
	MsgTokenRequired      = "Access token required"
	MsgTokenInvalid       = "Invalid or expired token"
	MsgForbidden          = "You can only modify your own account"
	MsgBusy               = "Service is busy. Please try again."
	MsgEndpointNotFound   = "Endpoint not found"
	MsgInternal           = "An unexpected error occurred"
)

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unknown,
// including store failures, becomes a generic 500.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return NewHTTPError(http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, MsgEmailTaken)
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, MsgInvalidCredentials)
	case errors.Is(err, ErrWrongPassword):
		return NewHTTPError(http.StatusUnauthorized, MsgWrongPassword)
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, MsgTokenInvalid)
	case errors.Is(err, ErrAccountDeactivated):
		return NewHTTPError(http.StatusForbidden, MsgDeactivated)
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, MsgForbidden)
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, MsgUserNotFound)
	case errors.Is(err, ErrBusy):
		return NewHTTPError(http.StatusServiceUnavailable, MsgBusy)
	default:
		return NewHTTPError(http.StatusInternalServerError, MsgInternal)
	}
}

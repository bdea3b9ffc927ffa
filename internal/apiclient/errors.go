package apiclient

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against an *APIError status.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrResponseTooLarge = errors.New("response body exceeds 32 MiB")
	errSessionEnded     = errors.New("session ended during request")
)

// Backend error codes carried in the envelope's errorCode field.
const (
	CodeInvalidInput           = "BAD_REQUEST_001"
	CodeDuplicateEmail         = "BAD_REQUEST_002"
	CodeLoginFailed            = "BAD_REQUEST_003"
	CodeNegativeAmount         = "BAD_REQUEST_004"
	CodeCategoryTypeMismatch   = "BAD_REQUEST_005"
	CodeInsufficientBalance    = "BAD_REQUEST_006"
	CodeBalanceWouldBeNegative = "BAD_REQUEST_007"
	CodeInvalidToken           = "UNAUTHORIZED_001"
	CodeExpiredToken           = "UNAUTHORIZED_002"
	CodeAccessDenied           = "FORBIDDEN_001"
	CodeCategoryHasTransaction = "CONFLICT_001"
	CodeCategoryDuplicateName  = "CONFLICT_002"
	CodeExportFailed           = "SERVER_ERROR_002"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status    int
	Code      string
	Message   string
	Method    string
	Path      string
	RequestID string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no message"
	}
	if e.Code != "" {
		return fmt.Sprintf("API error (%d %s): %s %s: %s", e.Status, e.Code, e.Method, e.Path, msg)
	}
	return fmt.Sprintf("API error (%d): %s %s: %s", e.Status, e.Method, e.Path, msg)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.Status == 400
	case ErrUnauthorized:
		return e.Status == 401
	case ErrForbidden:
		return e.Status == 403
	case ErrNotFound:
		return e.Status == 404
	case ErrConflict:
		return e.Status == 409
	}
	return false
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Message returns the backend's message for err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Code returns the backend error code for err, or "".
func Code(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

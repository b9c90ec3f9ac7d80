package github

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies a failed remote-store operation. The React client keys
// its messaging off these string values, so they are part of the API contract.
type ErrorType string

const (
	ErrAuthentication ErrorType = "AUTHENTICATION_ERROR"
	ErrPermission     ErrorType = "PERMISSION_ERROR"
	ErrRateLimit      ErrorType = "RATE_LIMIT_ERROR"
	ErrNotFound       ErrorType = "NOT_FOUND_ERROR"
	ErrValidation     ErrorType = "VALIDATION_ERROR"
	ErrConflict       ErrorType = "CONFLICT_ERROR"
	ErrServer         ErrorType = "SERVER_ERROR"
	ErrAPI            ErrorType = "API_ERROR"
	ErrTimeout        ErrorType = "TIMEOUT"
	ErrNetwork        ErrorType = "NETWORK_ERROR"
	ErrParse          ErrorType = "PARSE_ERROR"
)

// APIError is the only error type the client returns. SHA is populated on
// parse failures so callers can recover the corrupted file via force save.
type APIError struct {
	Type    ErrorType
	Status  int
	Message string
	SHA     string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Type, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// TypeOf extracts the classification from an error, or ErrAPI when the error
// did not originate in this package.
func TypeOf(err error) ErrorType {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrAPI
}

// IsConflict reports whether the error is a compare-and-swap rejection, i.e.
// the remote file changed since the caller's revision token was obtained.
func IsConflict(err error) bool {
	return TypeOf(err) == ErrConflict
}

// classifyStatus maps an HTTP failure status plus the upstream message into an
// error classification.
func classifyStatus(status int, message string) *APIError {
	var t ErrorType
	switch {
	case status == 401:
		t = ErrAuthentication
	case status == 403:
		if strings.Contains(strings.ToLower(message), "rate limit") {
			t = ErrRateLimit
		} else {
			t = ErrPermission
		}
	case status == 404:
		t = ErrNotFound
	case status == 409:
		t = ErrConflict
	case status == 422:
		t = ErrValidation
	case status >= 500:
		t = ErrServer
	default:
		t = ErrAPI
	}
	return &APIError{Type: t, Status: status, Message: message}
}

// retryableStatus reports whether a failed attempt with this status is worth
// repeating. Client-side mistakes and conflicts never resolve by retrying.
func retryableStatus(status int) bool {
	switch status {
	case 400, 401, 403, 404, 409, 422:
		return false
	}
	return true
}

package api

import "fmt"

// Code classifies a normalized API failure.
type Code string

const (
	// CodeNetworkError - transport unreachable (DNS, refused connection, dropped socket)
	CodeNetworkError Code = "NETWORK_ERROR"
	// CodeTimeoutError - the per-call deadline elapsed before a response arrived
	CodeTimeoutError Code = "TIMEOUT_ERROR"
	// CodeCacheParseError - a local snapshot could not be decoded
	CodeCacheParseError Code = "CACHE_PARSE_ERROR"
	// CodeValidationError - malformed input rejected before any remote call
	CodeValidationError Code = "VALIDATION_ERROR"
)

// HTTPCode returns the code for a server-returned error status, e.g. HTTP_404.
func HTTPCode(status int) Code {
	return Code(fmt.Sprintf("HTTP_%d", status))
}

// Error is the normalized failure shape of the client.
// Every failure mode of a remote call collapses into this type - callers never
// see a raw transport or decoding error.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError builds a VALIDATION_ERROR with the given message.
func NewValidationError(msg string) *Error {
	return &Error{Code: CodeValidationError, Message: msg}
}

// statusMessage maps server error statuses to user-facing messages.
func statusMessage(status int) string {
	switch status {
	case 401:
		return "Your session has expired. Please sign in again."
	case 403:
		return "You do not have permission to perform this action."
	case 404:
		return "The requested resource was not found."
	case 422:
		return "The server rejected the submitted data."
	case 500:
		return "The server encountered an internal error."
	case 503:
		return "The service is temporarily unavailable. Please try again shortly."
	default:
		return fmt.Sprintf("The server returned an unexpected error (%d).", status)
	}
}

package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeStoreUnavailable = "store_unavailable"
	ErrCodeRateLimited      = "rate_limited"
)

var (
	ErrSessionClosed    = errors.New("session closed")
	ErrAlreadyOpen      = errors.New("session already open")
	ErrHubClosed        = errors.New("hub closed")
	ErrStoreUnavailable = errors.New("message store unavailable")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ErrorEvent builds a private error notification.
func ErrorEvent(code, msg string) *Event {
	return &Event{Kind: EventError, Error: coreError(code, msg)}
}

package apiclient

import (
	"errors"
	"fmt"
)

// ErrTransport matches every TransportError via errors.Is.
var ErrTransport = errors.New("server connection problem")

// ConnectionMessage is shown to users when the API could not be reached.
const ConnectionMessage = "Server connection problem"

// TransportError means the request could not be sent or its response could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) hold for any TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// APIError is an application-level failure reported by the remote service.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

// UserMessage turns a client error into notification text.
// Server messages are passed through; fallback covers application errors without one.
func UserMessage(err error, fallback string) string {
	if errors.Is(err, ErrTransport) {
		return ConnectionMessage
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

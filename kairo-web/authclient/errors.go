package authclient

import (
	"fmt"
	"net/http"
)

// ValidationError reports a required field that was empty. It is raised
// before any request is sent.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// RemoteError reports a failed call to the auth service. Status is zero
// when the service could not be reached.
type RemoteError struct {
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Unreachable reports whether the request never got a response.
func (e *RemoteError) Unreachable() bool { return e.Status == 0 }

func remoteErrorFromBody(status int, body errorBody) *RemoteError {
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &RemoteError{Status: status, Message: msg}
}

package api

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers requests that could not be sent or whose response could not be read.
	ErrTransport = errors.New("request failed")
	// ErrRejected signals that the server answered but reported failure.
	ErrRejected = errors.New("request rejected")
)

// RejectedError carries the server's explanation for a rejected request.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return ErrRejected.Error()
	}
	return fmt.Sprintf("%s: %s", ErrRejected, e.Message)
}

// Is lets errors.Is match ErrRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// UserMessage returns the server's message for rejected requests, falling back
// to fallback for everything else.
func UserMessage(err error, fallback string) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return rejected.Message
	}
	return fallback
}

package raiderio

import (
	"errors"
	"fmt"
)

// Failure kinds, matched with errors.Is.
var (
	// ErrTransport covers network errors, timeouts, undecodable bodies, 429,
	// 5xx and any other unexpected status. Retryable once.
	ErrTransport = errors.New("transport error")
	// ErrMalformedResponse is a decodable body missing required keys.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUnknownCharacter is the remote "could not find" answer for a player.
	ErrUnknownCharacter = errors.New("character not found")
	// ErrUnknownGuild is the same answer for a guild roster.
	ErrUnknownGuild = errors.New("guild not found")
)

// RequestError describes a failed remote call.
type RequestError struct {
	Op         string
	URL        string
	StatusCode int
	Kind       error
	Err        error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("raiderio %s %s", e.Op, e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Retryable reports whether a failed call should go to the retry queue.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrUnknownCharacter) &&
		!errors.Is(err, ErrUnknownGuild) &&
		!errors.Is(err, ErrMalformedResponse)
}

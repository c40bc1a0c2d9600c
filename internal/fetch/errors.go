package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrFetchExhausted matches any *ExhaustedError via errors.Is.
var ErrFetchExhausted = errors.New("fetch exhausted")

// ErrInvalidURL is returned before any attempt when the locator cannot be
// requested at all.
var ErrInvalidURL = errors.New("invalid url")

// Outcome classifies a single download attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNetworkError
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// AttemptError is a transient failure of one attempt. Only errors of this type
// are retried.
type AttemptError struct {
	Outcome    Outcome
	StatusCode int // non-zero when the server answered with a non-2xx status
	Err        error
}

func (e *AttemptError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: server returned %d %s", e.Outcome, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: %v", e.Outcome, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	URL      string
	Attempts int
	Last     error
	History  []Attempt
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s: giving up after %d attempts, last failure: %v", e.URL, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Is reports ErrFetchExhausted as a match so callers need not type-assert.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrFetchExhausted
}

package captions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidVideoID is returned before any network call when the ID is malformed.
	ErrInvalidVideoID = errors.New("invalid video id")

	// ErrNotFound means a source has no captions for the requested language.
	ErrNotFound = errors.New("no captions for language")

	// ErrTransient covers network failures, timeouts and unexpected statuses.
	ErrTransient = errors.New("transient caption fetch failure")

	// ErrMalformed marks a response body that could not be parsed. It is
	// transient for classification purposes but never retried.
	ErrMalformed = errors.New("malformed caption response")

	// ErrNoCaptions is returned when every language hint and strategy was tried.
	ErrNoCaptions = errors.New("no captions available")
)

// ErrorKind classifies a failed fetch for downstream consumers.
type ErrorKind string

const (
	KindNoCaptions   ErrorKind = "no_captions"
	KindTransient    ErrorKind = "transient"
	KindInvalidInput ErrorKind = "invalid_input"
)

// FetchError is the only error type Fetcher.Fetch returns after it has
// started trying strategies.
type FetchError struct {
	Kind     ErrorKind
	VideoID  string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetching captions for %s: %s after %d attempt(s)", e.VideoID, e.sentinel(), e.Attempts)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the last underlying cause.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}

func (e *FetchError) sentinel() error {
	switch e.Kind {
	case KindNoCaptions:
		return ErrNoCaptions
	case KindInvalidInput:
		return ErrInvalidVideoID
	default:
		return ErrTransient
	}
}

// StatusError is an unexpected, non-404 HTTP status from an upstream.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s) from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// ErrorKindOf maps any error returned by this package to its kind.
func ErrorKindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidVideoID):
		return KindInvalidInput
	case errors.Is(err, ErrNoCaptions), isNotFound(err):
		return KindNoCaptions
	default:
		return KindTransient
	}
}

// isNotFound reports whether err means "nothing for this language" rather
// than a failure worth reporting.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) && !errors.Is(err, ErrTransient)
}

// isCanceled reports whether the caller gave up, as opposed to a per-call timeout.
func isCanceled(parent context.Context) bool {
	return parent.Err() != nil
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
}

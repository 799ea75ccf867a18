package query

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrInvalidMethod is returned by Build for verbs other than GET, POST, PUT and DELETE.
	ErrInvalidMethod = errors.New("invalid HTTP method")
	// ErrInvalidURL is returned by Build when the target is not an http(s) URL with a host.
	ErrInvalidURL = errors.New("invalid URL")

	ErrTransportFailure = errors.New("transport failure")
	ErrTimeout          = errors.New("timed out waiting for response")
	ErrCancelled        = errors.New("query cancelled")
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrPersistence marks a failed save-to-disk. It is reported through
	// Session.SaveError and never changes the dispatched response.
	ErrPersistence = errors.New("failed to save response body")

	// ErrReentrantWait is returned when a session is waited on from its own completion handler.
	ErrReentrantWait = errors.New("session cannot block on itself")
	// ErrLoopBusy is returned by Loop.Run when another goroutine is already pumping the loop.
	ErrLoopBusy = errors.New("loop is already running")
	// ErrLoopClosed is returned by Session.Wait when the loop was closed before the session finished.
	ErrLoopClosed = errors.New("loop is closed")
)

// Reason classifies why a session failed.
type Reason int

const (
	ReasonTransport Reason = iota
	ReasonTimeout
	ReasonCancelled
)

func (r Reason) String() string {
	switch r {
	case ReasonTimeout:
		return "timeout"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "transport"
	}
}

// FailureError is the Response.Err of a failed session.
type FailureError struct {
	Reason Reason
	URL    string
	Err    error
}

func (e *FailureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failure: %s", e.Reason, e.URL)
	}
	return fmt.Sprintf("%s failure: %s: %v", e.Reason, e.URL, e.Err)
}

// Unwrap exposes both the reason sentinel and the underlying cause, so a
// timeout matches ErrTimeout and ErrTransportFailure alike.
func (e *FailureError) Unwrap() []error {
	var sentinels []error
	switch e.Reason {
	case ReasonTimeout:
		sentinels = []error{ErrTimeout, ErrTransportFailure}
	case ReasonCancelled:
		sentinels = []error{ErrCancelled}
	default:
		sentinels = []error{ErrTransportFailure}
	}
	if e.Err != nil {
		sentinels = append(sentinels, e.Err)
	}
	return sentinels
}

// classify maps a transport error onto a failure reason.
func classify(err error) Reason {
	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
		return ReasonCancelled
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonTransport
}

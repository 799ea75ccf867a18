package query

import "log"

// CompletionFunc receives the single response of a session.
type CompletionFunc func(resp *Response, s *Session)

// Delegate is an object-style completion target.
type Delegate interface {
	HandleQueryResponse(resp *Response, s *Session)
}

type completionKind int

const (
	completionNoop completionKind = iota
	completionFunc
	completionDelegate
)

// completion is the resolved completion target of a session.
type completion struct {
	kind     completionKind
	fn       CompletionFunc
	delegate Delegate
	logger   *log.Logger
}

// resolveCompletion picks the target once, at session construction. A
// function takes priority over a delegate.
func resolveCompletion(fn CompletionFunc, d Delegate, logger *log.Logger) completion {
	switch {
	case fn != nil:
		return completion{kind: completionFunc, fn: fn, logger: logger}
	case d != nil:
		return completion{kind: completionDelegate, delegate: d, logger: logger}
	default:
		return completion{kind: completionNoop, logger: logger}
	}
}

func (c completion) deliver(resp *Response, s *Session) {
	switch c.kind {
	case completionFunc:
		c.fn(resp, s)
	case completionDelegate:
		c.delegate.HandleQueryResponse(resp, s)
	default:
		c.logger.Printf("[query] session %s: no completion handler set, dropping response for %s (status %d)",
			s.ID(), resp.URL, resp.StatusCode)
	}
}

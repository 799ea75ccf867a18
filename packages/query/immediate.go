package query

import (
	"context"
	"net/http"
	"time"
)

// runImmediate fetches the request to completion on the calling goroutine,
// bypassing the streaming state machine. A successful fetch is reported as
// status 200 without headers. A transport failure is reported like any
// failed session; an HTTP error keeps its real status and is not saved.
func (s *Session) runImmediate(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.started = time.Now()
	s.state = StateSending
	req := s.req
	s.tracef("immediate %s %s", req.Method, req.URL)
	s.mu.Unlock()

	fetched, err := s.fetcher.Fetch(ctx, req)

	s.mu.Lock()
	if err != nil {
		s.failLocked(classify(err), err)
		return
	}

	if fetched.URL != "" && fetched.URL != req.URL {
		next := req.clone()
		next.URL = fetched.URL
		s.req = next
	}
	s.status = fetched.StatusCode
	if fetched.StatusCode >= 200 && fetched.StatusCode < 300 {
		s.status = http.StatusOK
	}
	s.headers = make(map[string]string)
	s.buf.Write(fetched.Body)
	s.completeLocked()
}

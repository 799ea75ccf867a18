package query

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	neturl "net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is the position of a session in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateSending
	StateHeadersReceived
	StateBodyStreaming
	StateRedirecting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateHeadersReceived:
		return "headers-received"
	case StateBodyStreaming:
		return "body-streaming"
	case StateRedirecting:
		return "redirecting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

const (
	// maxPrealloc caps how much of a Content-Length hint is reserved up front.
	maxPrealloc = 1 << 20
	// pumpSlice is the longest a blocking waiter sleeps between checks.
	pumpSlice = 50 * time.Millisecond
)

// Session is one in-flight query. Its state advances only on loop events,
// except Cancel and a blocking waiter's timeout, which finalize directly.
// A session is never reused.
type Session struct {
	id           string
	loop         *Loop
	transport    Transport
	fetcher      Fetcher
	logger       *log.Logger
	verbose      bool
	completion   completion
	saveTo       string
	blocking     bool
	maxRedirects int

	mu            sync.Mutex
	state         State
	original      *Request
	req           *Request
	hop           int
	redirects     int
	buf           bytes.Buffer
	status        int
	headers       map[string]string
	sizeHint      int64
	baseCtx       context.Context
	cancelAttempt context.CancelFunc
	timer         *time.Timer
	deadline      time.Time
	started       time.Time
	response      *Response
	saveErr       error

	// finished is the one-shot latch: only the transition that sets it dispatches.
	finished atomic.Bool
	// dispatcher is the goroutine running the completion target, or 0.
	dispatcher atomic.Int64
	done       chan struct{}
}

func newSession(c *Client, req *Request, opts Options) *Session {
	return &Session{
		id:           uuid.New().String(),
		loop:         c.loop,
		transport:    c.transport,
		fetcher:      c.fetcher,
		logger:       c.logger,
		verbose:      c.verbose,
		completion:   resolveCompletion(opts.Handler, opts.Delegate, c.logger),
		saveTo:       opts.SaveTo,
		blocking:     opts.Blocking,
		maxRedirects: req.MaxRedirects,
		state:        StateIdle,
		original:     req,
		req:          req,
		sizeHint:     -1,
		done:         make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Request returns the request currently being sent, which differs from the
// original after a redirect.
func (s *Session) Request() *Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req
}

// OriginalRequest returns the request the caller built.
func (s *Session) OriginalRequest() *Request {
	return s.original
}

// Response returns the dispatched response, or nil before the session is terminal.
func (s *Session) Response() *Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.response
}

// SizeHint returns the Content-Length announced by the current response, or -1.
func (s *Session) SizeHint() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeHint
}

func (s *Session) Redirects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirects
}

// SaveError returns the save-to-disk failure, if any. It wraps ErrPersistence.
func (s *Session) SaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErr
}

// Blocking reports whether the session was issued in blocking mode.
func (s *Session) Blocking() bool {
	return s.blocking
}

// Done is closed after the completion target has been invoked.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start sends the request. It returns immediately; progress is made as the
// loop delivers transport notifications.
func (s *Session) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("session %s already started", s.id)
	}
	s.baseCtx = ctx
	s.started = time.Now()
	s.state = StateSending
	s.tracef("start %s %s", s.req.Method, s.req.URL)
	attempt := s.prepareAttemptLocked()
	s.mu.Unlock()

	attempt()
	return nil
}

// Cancel fails the session with ReasonCancelled. The completion target runs
// on the calling goroutine; nothing is saved. Cancelling a terminal session
// has no effect.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.failLocked(ReasonCancelled, ErrCancelled)
}

// Wait blocks until the session has dispatched its response. It pumps the
// loop while no other goroutine does, and otherwise waits on the done latch.
// A goroutine already inside a loop event pumps nested events, so a handler
// may issue and wait on a query of its own. Waiting from the session's own
// completion target returns ErrReentrantWait.
// Until response headers arrive, Wait enforces the session timeout itself.
// If ctx ends first the session is aborted and ctx.Err is returned; a
// closed loop aborts it with ErrLoopClosed.
func (s *Session) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-s.done:
		return nil
	default:
	}
	if id := s.dispatcher.Load(); id != 0 && id == goroutineID() {
		return ErrReentrantWait
	}

	for {
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			s.abort(ctx.Err())
			return ctx.Err()
		default:
		}

		s.expireIfOverdue()

		if s.loop.RunOnce(pumpSlice) {
			continue
		}
		if s.loop.Closed() {
			s.abort(ErrLoopClosed)
			return ErrLoopClosed
		}
		if s.loop.Pumping() {
			select {
			case <-s.done:
			case <-ctx.Done():
			case <-time.After(pumpSlice):
			}
		}
	}
}

func (s *Session) abort(err error) {
	s.mu.Lock()
	s.failLocked(classify(err), err)
}

// prepareAttemptLocked arms a new attempt against s.req. The returned func
// starts the transport and must be called without mu held.
func (s *Session) prepareAttemptLocked() func() {
	s.hop++
	s.stopAttemptLocked()

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancelAttempt = cancel
	s.deadline = time.Now().Add(s.req.Timeout)
	s.timer = time.AfterFunc(s.req.Timeout, s.onTimer)

	n := &hopNotifier{s: s, hop: s.hop}
	req := s.req
	return func() {
		s.transport.Start(ctx, req, n)
	}
}

func (s *Session) stopAttemptLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancelAttempt != nil {
		s.cancelAttempt()
		s.cancelAttempt = nil
	}
}

func (s *Session) onTimer() {
	if !s.loop.Post(s.expireIfOverdue) {
		s.expireIfOverdue()
	}
}

// expireIfOverdue fails the session when no response headers arrived before
// the current attempt's deadline.
func (s *Session) expireIfOverdue() {
	s.mu.Lock()
	if s.state != StateSending || s.deadline.IsZero() || time.Now().Before(s.deadline) {
		s.mu.Unlock()
		return
	}
	s.failLocked(ReasonTimeout, fmt.Errorf("%w after %s", ErrTimeout, s.req.Timeout))
}

// currentLocked reports whether a notification from hop still applies.
func (s *Session) currentLocked(hop int) bool {
	return hop == s.hop && !s.state.Terminal()
}

func (s *Session) onRedirect(hop int, location *neturl.URL, status int) {
	s.mu.Lock()
	if !s.currentLocked(hop) {
		s.mu.Unlock()
		return
	}
	if s.redirects >= s.maxRedirects {
		s.failLocked(ReasonTransport, fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, s.redirects))
		return
	}

	s.state = StateRedirecting
	s.redirects++
	s.buf.Reset()
	s.status = 0
	s.headers = nil
	s.sizeHint = -1
	s.req = s.req.redirectTo(location, status)
	s.tracef("redirect %d -> %s %s", status, s.req.Method, s.req.URL)

	s.state = StateSending
	attempt := s.prepareAttemptLocked()
	s.mu.Unlock()

	attempt()
}

func (s *Session) onResponse(hop int, status int, headers map[string]string, contentLength int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(hop) {
		return
	}
	if s.state != StateSending {
		s.tracef("ignoring duplicate response headers in state %s", s.state)
		return
	}

	s.state = StateHeadersReceived
	s.status = status
	s.headers = headers
	s.sizeHint = contentLength
	s.deadline = time.Time{}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// Content-Length is only a hint; the body ends when the transport says so.
	if contentLength > 0 {
		s.buf.Grow(int(min(contentLength, maxPrealloc)))
	}
	s.tracef("headers status=%d size-hint=%d", status, contentLength)
}

func (s *Session) onData(hop int, chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(hop) {
		return
	}
	if s.state != StateHeadersReceived && s.state != StateBodyStreaming {
		s.tracef("ignoring %d bytes delivered in state %s", len(chunk), s.state)
		return
	}
	s.state = StateBodyStreaming
	s.buf.Write(chunk)
}

func (s *Session) onFinish(hop int) {
	s.mu.Lock()
	if !s.currentLocked(hop) {
		s.mu.Unlock()
		return
	}
	if s.state == StateSending {
		s.failLocked(ReasonTransport, errors.New("transport finished before a response arrived"))
		return
	}
	s.completeLocked()
}

func (s *Session) onFail(hop int, err error) {
	s.mu.Lock()
	if !s.currentLocked(hop) {
		s.mu.Unlock()
		return
	}
	s.failLocked(classify(err), err)
}

// completeLocked freezes the response, saves it when configured and
// dispatches it. It must be called with mu held and releases it.
func (s *Session) completeLocked() {
	if !s.finished.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return
	}
	s.state = StateCompleted
	s.stopAttemptLocked()

	headers := s.headers
	if headers == nil {
		headers = make(map[string]string)
	}
	resp := &Response{
		StatusCode: s.status,
		Headers:    headers,
		Body:       append([]byte{}, s.buf.Bytes()...),
		URL:        s.req.URL,
		Duration:   time.Since(s.started),
	}
	s.buf.Reset()
	s.response = resp
	s.tracef("completed status=%d bytes=%d", resp.StatusCode, len(resp.Body))
	s.mu.Unlock()

	if s.saveTo != "" && resp.IsSuccess() {
		if err := saveAtomically(s.saveTo, resp.Body); err != nil {
			s.mu.Lock()
			s.saveErr = err
			s.mu.Unlock()
			s.logger.Printf("[query] session %s: %v", s.id, err)
		}
	}

	s.dispatch(resp)
}

// failLocked publishes a transport-error response. It must be called with
// mu held and releases it.
func (s *Session) failLocked(reason Reason, err error) {
	if !s.finished.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return
	}
	s.state = StateFailed
	s.stopAttemptLocked()

	if s.started.IsZero() {
		s.started = time.Now()
	}
	resp := &Response{
		Headers:        make(map[string]string),
		Body:           []byte{},
		URL:            s.req.URL,
		TransportError: true,
		Err:            &FailureError{Reason: reason, URL: s.req.URL, Err: err},
		Duration:       time.Since(s.started),
	}
	s.buf.Reset()
	s.status = 0
	s.headers = nil
	s.response = resp
	s.tracef("failed: %v", resp.Err)
	s.mu.Unlock()

	s.dispatch(resp)
}

func (s *Session) dispatch(resp *Response) {
	s.dispatcher.Store(goroutineID())
	defer func() {
		s.dispatcher.Store(0)
		close(s.done)
	}()
	s.completion.deliver(resp, s)
}

func (s *Session) tracef(format string, args ...any) {
	if s.verbose {
		s.logger.Printf("[query] session %s: "+format, append([]any{s.id}, args...)...)
	}
}

// hopNotifier binds transport notifications to one attempt of a session and
// hands them to the loop.
type hopNotifier struct {
	s   *Session
	hop int
}

func (n *hopNotifier) Redirect(location *neturl.URL, status int) {
	n.post(func() { n.s.onRedirect(n.hop, location, status) })
}

func (n *hopNotifier) Response(status int, header http.Header, contentLength int64) {
	headers := flattenHeader(header)
	n.post(func() { n.s.onResponse(n.hop, status, headers, contentLength) })
}

func (n *hopNotifier) Data(chunk []byte) {
	// The transport may reuse its read buffer
	data := append([]byte(nil), chunk...)
	n.post(func() { n.s.onData(n.hop, data) })
}

func (n *hopNotifier) Finish() {
	n.post(func() { n.s.onFinish(n.hop) })
}

func (n *hopNotifier) Fail(err error) {
	n.post(func() { n.s.onFail(n.hop, err) })
}

func (n *hopNotifier) post(fn func()) {
	// Nothing a finished session receives can change its outcome
	if n.s.finished.Load() {
		return
	}
	if !n.s.loop.Post(fn) {
		n.s.logger.Printf("[query] session %s: loop closed, notification dropped", n.s.id)
	}
}

package query

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"
)

// Client issues queries. Each call creates its own Session; the client only
// carries defaults and the loop and transport the sessions share.
type Client struct {
	loop         *Loop
	transport    Transport
	fetcher      Fetcher
	timeout      time.Duration
	maxRedirects int
	logger       *log.Logger
	verbose      bool
}

type ClientOption func(*Client)

// Options configures a single query.
type Options struct {
	Headers map[string]string
	// Payload is ignored for GET. Strings are sent as UTF-8 bytes.
	Payload    any
	SaveTo     string
	Credential *Credential
	// Blocking makes the call return only after the completion target ran.
	Blocking bool
	// Immediate fetches in one synchronous step without streaming.
	Immediate bool
	Timeout   time.Duration
	// Handler takes priority over Delegate when both are set.
	Handler  CompletionFunc
	Delegate Delegate
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if c.loop == nil {
		c.loop = NewLoop()
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport()
	}
	if c.fetcher == nil {
		if f, ok := c.transport.(Fetcher); ok {
			c.fetcher = f
		} else {
			c.fetcher = NewHTTPTransport()
		}
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithTransport replaces the net/http transport. If t also implements
// Fetcher it serves immediate queries too.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) {
		c.transport = t
	}
}

func WithFetcher(f Fetcher) ClientOption {
	return func(c *Client) {
		c.fetcher = f
	}
}

// WithLoop shares an existing loop, e.g. one already pumped by the caller.
func WithLoop(l *Loop) ClientOption {
	return func(c *Client) {
		c.loop = l
	}
}

func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithVerbose logs every session transition
func WithVerbose(v bool) ClientOption {
	return func(c *Client) {
		c.verbose = v
	}
}

// Loop returns the loop the client's sessions are driven by.
func (c *Client) Loop() *Loop {
	return c.loop
}

// Run pumps the client's loop until ctx is done. Non-blocking queries make
// progress only while some goroutine pumps the loop.
func (c *Client) Run(ctx context.Context) error {
	return c.loop.Run(ctx)
}

// Close stops the loop. Sessions still in flight never complete.
func (c *Client) Close() {
	c.loop.Close()
}

// Do builds the request and starts a session for it. Only construction
// errors and ErrReentrantWait are returned; everything that happens after
// the request starts reaches the completion target instead.
func (c *Client) Do(ctx context.Context, method, url string, opts Options) (*Session, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	req, err := Build(url, method, opts.Headers, opts.Payload, timeout)
	if err != nil {
		return nil, err
	}
	if opts.Credential != nil {
		req = req.WithCredential(opts.Credential)
	}
	req = req.WithMaxRedirects(c.maxRedirects)

	s := newSession(c, req, opts)

	if opts.Immediate {
		s.runImmediate(ctx)
		return s, nil
	}

	if err := s.Start(ctx); err != nil {
		return s, err
	}

	if opts.Blocking {
		if err := s.Wait(ctx); errors.Is(err, ErrReentrantWait) {
			return s, err
		}
	}

	return s, nil
}

func (c *Client) Get(ctx context.Context, url string, opts Options) (*Session, error) {
	return c.Do(ctx, http.MethodGet, url, opts)
}

func (c *Client) Post(ctx context.Context, url string, opts Options) (*Session, error) {
	return c.Do(ctx, http.MethodPost, url, opts)
}

func (c *Client) Put(ctx context.Context, url string, opts Options) (*Session, error) {
	return c.Do(ctx, http.MethodPut, url, opts)
}

func (c *Client) Delete(ctx context.Context, url string, opts Options) (*Session, error) {
	return c.Do(ctx, http.MethodDelete, url, opts)
}

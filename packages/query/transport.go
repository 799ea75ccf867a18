package query

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"
)

const (
	// DefaultChunkSize is the read size used when streaming a response body
	DefaultChunkSize = 32 * 1024
	// DefaultIdleConnTimeout is how long idle connections stay open
	DefaultIdleConnTimeout = 90 * time.Second
)

// Notifier receives the progress of one transport attempt. Its methods are
// called from the transport's goroutine, in order: any number of Data calls
// after Response, then exactly one of Finish or Fail. Redirect replaces
// Response entirely and ends the attempt.
type Notifier interface {
	Redirect(location *neturl.URL, status int)
	Response(status int, header http.Header, contentLength int64)
	Data(chunk []byte)
	Finish()
	Fail(err error)
}

// Transport drives one request attempt against the network. Start must not
// block; cancelling ctx aborts the attempt.
type Transport interface {
	Start(ctx context.Context, req *Request, n Notifier)
}

// Fetched is the outcome of a one-shot fetch.
type Fetched struct {
	StatusCode int
	Body       []byte
	URL        string
}

// Fetcher performs a synchronous fetch to completion, following redirects
// natively. It backs the immediate mode.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Fetched, error)
}

type redirectLimitKey struct{}

// HTTPTransport implements Transport and Fetcher on net/http.
type HTTPTransport struct {
	streaming   *http.Client
	oneShot     *http.Client
	chunkSize   int
	validateSSL bool
	proxyURL    string
}

var (
	_ Transport = (*HTTPTransport)(nil)
	_ Fetcher   = (*HTTPTransport)(nil)
)

type TransportOption func(*HTTPTransport)

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) TransportOption {
	return func(t *HTTPTransport) {
		t.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) TransportOption {
	return func(t *HTTPTransport) {
		t.proxyURL = proxyURL
	}
}

// WithChunkSize sets the read size for body chunks
func WithChunkSize(n int) TransportOption {
	return func(t *HTTPTransport) {
		if n > 0 {
			t.chunkSize = n
		}
	}
}

func NewHTTPTransport(opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		chunkSize:   DefaultChunkSize,
		validateSSL: true,
	}
	for _, opt := range opts {
		opt(t)
	}

	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		IdleConnTimeout: DefaultIdleConnTimeout,
	}
	if !t.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}
	if t.proxyURL != "" {
		proxyURL, err := neturl.Parse(t.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	// Sessions re-issue redirects themselves, so the streaming client
	// surfaces every 3xx response.
	t.streaming = &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	// The one-shot client follows redirects natively, up to the limit the
	// request carries in its context.
	t.oneShot = &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			limit, ok := req.Context().Value(redirectLimitKey{}).(int)
			if !ok {
				limit = DefaultMaxRedirects
			}
			if len(via) > limit {
				return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, len(via)-1)
			}
			return nil
		},
	}
	return t
}

func (t *HTTPTransport) Start(ctx context.Context, req *Request, n Notifier) {
	go t.stream(ctx, req, n)
}

func (t *HTTPTransport) stream(ctx context.Context, req *Request, n Notifier) {
	httpReq, err := newHTTPRequest(ctx, req)
	if err != nil {
		n.Fail(err)
		return
	}

	resp, err := t.streaming.Do(httpReq)
	if err != nil {
		n.Fail(err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if isRedirect(resp.StatusCode) {
		// A 3xx without a usable Location is delivered as a final response
		if location, err := resp.Location(); err == nil {
			n.Redirect(location, resp.StatusCode)
			return
		}
	}

	n.Response(resp.StatusCode, resp.Header, resp.ContentLength)

	buf := make([]byte, t.chunkSize)
	for {
		nr, err := resp.Body.Read(buf)
		if nr > 0 {
			n.Data(buf[:nr])
		}
		if err == io.EOF {
			n.Finish()
			return
		}
		if err != nil {
			n.Fail(err)
			return
		}
	}
}

func (t *HTTPTransport) Fetch(ctx context.Context, req *Request) (*Fetched, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	ctx = context.WithValue(ctx, redirectLimitKey{}, req.MaxRedirects)
	httpReq, err := newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := t.oneShot.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Fetched{
		StatusCode: resp.StatusCode,
		Body:       body,
		URL:        resp.Request.URL.String(),
	}, nil
}

// newHTTPRequest applies the headers the transport owns on top of the
// caller's: basic credentials and Content-Length (set by net/http).
func newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if req.Credential != nil {
		httpReq.SetBasicAuth(req.Credential.User, req.Credential.Password)
	}

	return httpReq, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

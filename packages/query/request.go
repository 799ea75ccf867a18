package query

import (
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds the time between starting a query and receiving its response headers
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects a session follows
	DefaultMaxRedirects = 10
)

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// Request is a transport-ready query. It is never mutated once a session
// starts; redirects derive a new Request instead.
type Request struct {
	Method     string
	URL        string
	Headers    map[string]string
	Body       []byte
	Timeout    time.Duration
	Credential *Credential
	// MaxRedirects is how many redirects may be followed before the query
	// fails with ErrTooManyRedirects. Build sets DefaultMaxRedirects.
	MaxRedirects int
}

// Credential is a user/password pair sent as basic authorization.
type Credential struct {
	User     string
	Password string
}

// Build validates and assembles a Request. GET requests never carry a body,
// so any payload passed with GET is dropped.
func Build(url, method string, headers map[string]string, payload any, timeout time.Duration) (*Request, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	if m == "" {
		m = http.MethodGet
	}
	if !supportedMethods[m] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	if err := ValidateURL(url); err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	r := &Request{
		Method:  m,
		URL:     url,
		Headers:      make(map[string]string, len(headers)),
		Timeout:      timeout,
		MaxRedirects: DefaultMaxRedirects,
	}
	for k, v := range headers {
		r.Headers[k] = v
	}

	if m != http.MethodGet && payload != nil {
		body, err := encodePayload(payload)
		if err != nil {
			return nil, err
		}
		r.Body = body
	}

	return r, nil
}

// WithMaxRedirects returns a copy of r following at most n redirects.
// Negative values are treated as zero.
func (r *Request) WithMaxRedirects(n int) *Request {
	cp := r.clone()
	cp.MaxRedirects = max(n, 0)
	return cp
}

// WithCredential returns a copy of r carrying c.
func (r *Request) WithCredential(c *Credential) *Request {
	cp := r.clone()
	if c != nil && c.User != "" {
		cred := *c
		cp.Credential = &cred
	} else {
		cp.Credential = nil
	}
	return cp
}

func (r *Request) clone() *Request {
	cp := *r
	cp.Headers = make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		cp.Headers[k] = v
	}
	if r.Body != nil {
		cp.Body = append([]byte(nil), r.Body...)
	}
	return &cp
}

// redirectTo derives the request re-issued after a redirect response. The
// caller's headers are copied onto the new target. Method rewriting follows
// net/http: 301 and 302 turn POST into GET, 303 turns everything but HEAD
// into GET, 307 and 308 keep method and body.
func (r *Request) redirectTo(location *neturl.URL, status int) *Request {
	next := r.clone()
	next.URL = location.String()

	switch status {
	case http.StatusMovedPermanently, http.StatusFound:
		if r.Method == http.MethodPost {
			next.Method = http.MethodGet
			next.Body = nil
		}
	case http.StatusSeeOther:
		if r.Method != http.MethodHead {
			next.Method = http.MethodGet
			next.Body = nil
		}
	}

	// Credentials never follow a redirect to another host
	if r.Credential != nil && !sameHost(r.URL, next.URL) {
		next.Credential = nil
	}
	return next
}

func sameHost(a, b string) bool {
	ua, err := neturl.Parse(a)
	if err != nil {
		return false
	}
	ub, err := neturl.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Host, ub.Host)
}

func encodePayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case []byte:
		return append([]byte(nil), p...), nil
	case string:
		return []byte(p), nil
	case io.Reader:
		body, err := io.ReadAll(p)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		return body, nil
	case fmt.Stringer:
		return []byte(p.String()), nil
	default:
		return []byte(fmt.Sprint(p)), nil
	}
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q (only http and https are allowed)", ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: URL must have a host", ErrInvalidURL)
	}

	return nil
}

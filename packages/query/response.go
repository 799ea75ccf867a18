package query

import (
	"net/http"
	"strings"
	"time"
)

// Response is the terminal result of one query. StatusCode is zero when no
// status line was received; TransportError distinguishes a failed exchange
// from an HTTP error status.
type Response struct {
	StatusCode     int
	Headers        map[string]string
	Body           []byte
	URL            string
	TransportError bool
	Err            error
	Duration       time.Duration
}

// HasStatus reports whether a status line was received.
func (r *Response) HasStatus() bool {
	return r.StatusCode != 0
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "json")
}

func (r *Response) IsXML() bool {
	return strings.Contains(r.ContentType(), "xml")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// flattenHeader keeps the first value of each header, keyed canonically.
func flattenHeader(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k := range h {
		headers[k] = h.Get(k)
	}
	return headers
}

package output

import (
	"encoding/json"
	"io"
	"os"
	"time"
	"unicode/utf8"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Results  []JSONResult `json:"results"`
	Failed   int          `json:"failed"`
	Duration float64      `json:"duration"`
	Time     string       `json:"time"`
}

// JSONResult represents one query
type JSONResult struct {
	Request   *JSONRequest   `json:"request,omitempty"`
	Response  *JSONResponse  `json:"response,omitempty"`
	Error     string         `json:"error,omitempty"`
	Captures  map[string]any `json:"captures,omitempty"`
	Schema    string         `json:"schemaError,omitempty"`
	SavedTo   string         `json:"savedTo,omitempty"`
	SaveError string         `json:"saveError,omitempty"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// JSONResponse represents response details. StatusCode is omitted when no
// status line was received.
type JSONResponse struct {
	StatusCode     int               `json:"statusCode,omitempty"`
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           string            `json:"body,omitempty"`
	TransportError bool              `json:"transportError,omitempty"`
	Duration       float64           `json:"duration"`
}

// JSONFormatter accumulates results and writes them on Flush
type JSONFormatter struct {
	writer  io.Writer
	results []JSONResult
	failed  int
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *Result) {
	out := JSONResult{
		Captures: result.Captures,
	}
	if result.Failed() {
		f.failed++
	}

	if result.Request != nil {
		out.Request = &JSONRequest{
			Method:  result.Request.Method,
			URL:     result.Request.URL,
			Headers: result.Request.Headers,
		}
	}

	if resp := result.Response; resp != nil {
		out.Response = &JSONResponse{
			StatusCode:     resp.StatusCode,
			URL:            resp.URL,
			Headers:        resp.Headers,
			TransportError: resp.TransportError,
			Duration:       float64(resp.Duration.Milliseconds()),
		}
		if result.SavedTo == "" && utf8.Valid(resp.Body) {
			out.Response.Body = string(resp.Body)
		}
		if resp.Err != nil {
			out.Error = resp.Err.Error()
		}
	}

	if result.SchemaErr != nil {
		out.Schema = result.SchemaErr.Error()
	}
	if result.SaveErr != nil {
		out.SaveError = result.SaveErr.Error()
	} else if result.SavedTo != "" {
		out.SavedTo = result.SavedTo
	}

	f.results = append(f.results, out)
}

func (f *JSONFormatter) FormatError(err error) {
	f.results = append(f.results, JSONResult{Error: err.Error()})
	f.failed++
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	output := JSONOutput{
		Results:  f.results,
		Failed:   f.failed,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/stopwatch/packages/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okResult() *Result {
	return &Result{
		Request: &query.Request{Method: "GET", URL: "https://api.example.com/ping"},
		Response: &query.Response{
			StatusCode: 200,
			Headers:    map[string]string{"Content-Type": "application/xml"},
			Body:       []byte("<a>1</a>"),
			URL:        "https://api.example.com/ping",
			Duration:   12 * time.Millisecond,
		},
		Captures: map[string]any{"id": 7},
	}
}

func failedResult() *Result {
	return &Result{
		Request: &query.Request{Method: "GET", URL: "https://nowhere.invalid/"},
		Response: &query.Response{
			Headers:        map[string]string{},
			Body:           []byte{},
			URL:            "https://nowhere.invalid/",
			TransportError: true,
			Err:            &query.FailureError{Reason: query.ReasonTransport, URL: "https://nowhere.invalid/", Err: errors.New("no such host")},
		},
	}
}

func TestConsoleFormatter_Success(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	f.FormatResult(okResult())

	out := buf.String()
	assert.Contains(t, out, "GET https://api.example.com/ping")
	assert.Contains(t, out, "200")
	assert.Contains(t, out, "Content-Type: application/xml")
	assert.Contains(t, out, "id = 7")
	assert.Contains(t, out, "<a>1</a>")
}

func TestConsoleFormatter_SavedBodyIsNotPrinted(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	r := okResult()
	r.SavedTo = "/tmp/out.xml"
	f.FormatResult(r)

	assert.Contains(t, buf.String(), "saved to /tmp/out.xml")
	assert.NotContains(t, buf.String(), "<a>1</a>")
}

func TestConsoleFormatter_TransportError(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatResult(failedResult())

	assert.Contains(t, buf.String(), "transport error")
	assert.Contains(t, buf.String(), "no such host")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.FormatResult(okResult())
	f.FormatResult(failedResult())
	require.NoError(t, f.Flush(time.Second))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Results, 2)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 200, out.Results[0].Response.StatusCode)
	assert.Equal(t, "<a>1</a>", out.Results[0].Response.Body)
	assert.True(t, out.Results[1].Response.TransportError)
	assert.Zero(t, out.Results[1].Response.StatusCode)
	assert.Contains(t, out.Results[1].Error, "no such host")
}

func TestNew(t *testing.T) {
	f, err := New("json", &bytes.Buffer{}, false, true)
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)

	f, err = New("", &bytes.Buffer{}, false, true)
	require.NoError(t, err)
	assert.IsType(t, &ConsoleFormatter{}, f)

	_, err = New("junit", &bytes.Buffer{}, false, true)
	assert.Error(t, err)
}

func TestResult_Failed(t *testing.T) {
	assert.False(t, okResult().Failed())
	assert.True(t, failedResult().Failed())

	r := okResult()
	r.Response.StatusCode = 500
	assert.True(t, r.Failed())

	r = okResult()
	r.SchemaErr = errors.New("bad")
	assert.True(t, r.Failed())
}

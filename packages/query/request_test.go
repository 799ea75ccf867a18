package query

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestBuild_NormalizesMethod(t *testing.T) {
	for _, method := range []string{"get", "Post", " put ", "DELETE"} {
		req, err := Build("https://api.example.com", method, nil, nil, 0)
		require.NoError(t, err, method)
		assert.Equal(t, strings.ToUpper(strings.TrimSpace(method)), req.Method)
	}
}

func TestBuild_EmptyMethodDefaultsToGet(t *testing.T) {
	req, err := Build("https://api.example.com", "", nil, "ignored", 0)
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Nil(t, req.Body)
}

func TestBuild_InvalidMethod(t *testing.T) {
	for _, method := range []string{"PATCH", "HEAD", "FETCH"} {
		_, err := Build("https://api.example.com", method, nil, nil, 0)
		assert.True(t, errors.Is(err, ErrInvalidMethod), method)
	}
}

func TestBuild_InvalidURL(t *testing.T) {
	for _, url := range []string{"ftp://example.com/file", "example.com", "http://", "://bad"} {
		_, err := Build(url, "GET", nil, nil, 0)
		assert.True(t, errors.Is(err, ErrInvalidURL), url)
	}
}

func TestBuild_GetDropsPayload(t *testing.T) {
	req, err := Build("https://api.example.com", "GET", nil, "x=1", 0)
	require.NoError(t, err)
	assert.Nil(t, req.Body)
}

func TestBuild_NonGetKeepsPayload(t *testing.T) {
	for _, method := range []string{"POST", "PUT", "DELETE"} {
		req, err := Build("https://api.example.com", method, nil, "x=1&name=ü", 0)
		require.NoError(t, err)
		assert.Equal(t, []byte("x=1&name=ü"), req.Body, method)
	}
}

func TestBuild_PayloadTypes(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"bytes", []byte("raw"), "raw"},
		{"reader", strings.NewReader("from reader"), "from reader"},
		{"stringer", stringer("stringer"), "stringer"},
		{"number", 42, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Build("https://api.example.com", "POST", nil, tt.payload, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(req.Body))
		})
	}
}

func TestBuild_CopiesHeaders(t *testing.T) {
	headers := map[string]string{"Accept": "application/xml"}
	req, err := Build("https://api.example.com", "GET", headers, nil, 0)
	require.NoError(t, err)

	headers["Accept"] = "text/plain"
	assert.Equal(t, "application/xml", req.Headers["Accept"])
	assert.Len(t, req.Headers, 1)
}

func TestBuild_DefaultTimeout(t *testing.T) {
	req, err := Build("https://api.example.com", "GET", nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, req.Timeout)

	req, err = Build("https://api.example.com", "GET", nil, nil, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, req.Timeout)
}

func TestRequest_WithCredential(t *testing.T) {
	req, err := Build("https://api.example.com", "GET", nil, nil, 0)
	require.NoError(t, err)

	withCred := req.WithCredential(&Credential{User: "me", Password: "s3krit"})
	assert.Nil(t, req.Credential)
	require.NotNil(t, withCred.Credential)
	assert.Equal(t, "me", withCred.Credential.User)

	assert.Nil(t, req.WithCredential(&Credential{}).Credential)
}

func TestRequest_WithMaxRedirects(t *testing.T) {
	req, err := Build("https://api.example.com", "GET", nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRedirects, req.MaxRedirects)

	assert.Equal(t, 2, req.WithMaxRedirects(2).MaxRedirects)
	assert.Equal(t, 0, req.WithMaxRedirects(-1).MaxRedirects)
	assert.Equal(t, DefaultMaxRedirects, req.MaxRedirects)
}

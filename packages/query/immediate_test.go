package query

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	fetched *Fetched
	err     error
	got     *Request
}

func (f *fakeFetcher) Fetch(ctx context.Context, req *Request) (*Fetched, error) {
	f.got = req
	return f.fetched, f.err
}

func TestImmediate_SuccessReportsOKWithoutHeaders(t *testing.T) {
	fetcher := &fakeFetcher{fetched: &Fetched{StatusCode: 201, Body: []byte("created"), URL: "https://api.example.com/final"}}
	tr := &scriptedTransport{}
	c := newScriptedClient(tr, WithFetcher(fetcher))
	rec := &recorder{}
	savePath := filepath.Join(t.TempDir(), "out")

	s, err := c.Post(context.Background(), "https://api.example.com/start", Options{
		Payload:   "x=1",
		Immediate: true,
		SaveTo:    savePath,
		Handler:   rec.handle,
	})
	require.NoError(t, err)

	assert.Empty(t, tr.sent())
	assert.Equal(t, []byte("x=1"), fetcher.got.Body)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, 200, rec.resp.StatusCode)
	assert.Empty(t, rec.resp.Headers)
	assert.Equal(t, "created", rec.resp.BodyString())
	assert.Equal(t, "https://api.example.com/final", rec.resp.URL)

	saved, err := os.ReadFile(savePath)
	require.NoError(t, err)
	assert.Equal(t, "created", string(saved))
}

func TestImmediate_HTTPErrorKeepsStatus(t *testing.T) {
	fetcher := &fakeFetcher{fetched: &Fetched{StatusCode: 500, Body: []byte("boom")}}
	c := newScriptedClient(&scriptedTransport{}, WithFetcher(fetcher))
	rec := &recorder{}
	savePath := filepath.Join(t.TempDir(), "out")

	_, err := c.Get(context.Background(), "https://api.example.com/", Options{Immediate: true, SaveTo: savePath, Handler: rec.handle})
	require.NoError(t, err)

	assert.Equal(t, 500, rec.resp.StatusCode)
	assert.False(t, rec.resp.TransportError)
	_, statErr := os.Stat(savePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestImmediate_TransportFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
	c := newScriptedClient(&scriptedTransport{}, WithFetcher(fetcher))
	rec := &recorder{}

	s, err := c.Get(context.Background(), "https://api.example.com/", Options{Immediate: true, Handler: rec.handle})
	require.NoError(t, err)

	assert.Equal(t, StateFailed, s.State())
	assert.True(t, rec.resp.TransportError)
	assert.False(t, rec.resp.HasStatus())
	assert.ErrorIs(t, rec.resp.Err, ErrTransportFailure)
}

func TestImmediate_CarriesRedirectLimit(t *testing.T) {
	fetcher := &fakeFetcher{fetched: &Fetched{StatusCode: 200, URL: "https://api.example.com/"}}
	c := newScriptedClient(&scriptedTransport{}, WithFetcher(fetcher), WithMaxRedirects(3))

	_, err := c.Get(context.Background(), "https://api.example.com/", Options{Immediate: true, Handler: func(*Response, *Session) {}})
	require.NoError(t, err)
	require.NotNil(t, fetcher.got)
	assert.Equal(t, 3, fetcher.got.MaxRedirects)
}

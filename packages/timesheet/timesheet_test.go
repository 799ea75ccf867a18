package timesheet

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/stopwatch/packages/core/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() Entry {
	return Entry{
		Job:     "J1",
		Task:    "T1",
		Staff:   "11",
		Date:    time.Date(2026, 1, 2, 9, 30, 0, 0, time.Local),
		Minutes: 90,
		Note:    "fixes & review",
	}
}

func TestEntry_Encode(t *testing.T) {
	data, err := sampleEntry().Encode()
	require.NoError(t, err)

	want := "<Timesheet><Job>J1</Job><Task>T1</Task><Staff>11</Staff><Date>20260102</Date>" +
		"<Minutes>90</Minutes><Note>fixes &amp; review</Note></Timesheet>"
	assert.Equal(t, want, string(data))
}

func TestEntry_DecodeRoundTrip(t *testing.T) {
	data, err := sampleEntry().Encode()
	require.NoError(t, err)

	var got Entry
	require.NoError(t, xml.Unmarshal(data, &got))
	assert.Equal(t, "J1", got.Job)
	assert.Equal(t, 90, got.Minutes)
	assert.Equal(t, "20260102", got.Date.Format(DateLayout))
}

func TestEntry_Validate(t *testing.T) {
	assert.NoError(t, sampleEntry().Validate())

	err := Entry{Minutes: 0}.Validate()
	assert.ErrorIs(t, err, ErrInvalidEntry)
	assert.ErrorContains(t, err, "job is required")
	assert.ErrorContains(t, err, "minutes must be positive")
}

func TestTimer(t *testing.T) {
	start := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	now := start.Add(65*time.Minute + 40*time.Second)
	timer := &Timer{Clock: func() time.Time { return now }}

	assert.Zero(t, timer.Elapsed())
	timer.Start(start)
	assert.True(t, timer.Running())
	assert.Equal(t, 66, timer.Minutes())
	assert.Equal(t, "01:06", timer.Hours())

	timer.Stop(start.Add(20*time.Minute + 29*time.Second))
	assert.False(t, timer.Running())
	assert.Equal(t, 20, timer.Minutes())
	assert.Equal(t, "00:20", timer.Hours())

	e := timer.Entry("J1", "T1", "11", "note")
	assert.Equal(t, 20, e.Minutes)
	assert.Equal(t, start, e.Date)
}

func TestTimer_StopBeforeStart(t *testing.T) {
	start := time.Now()
	timer := &Timer{}
	timer.Start(start)
	timer.Stop(start.Add(-time.Minute))
	assert.Zero(t, timer.Elapsed())
}

type fakePoster struct {
	mu       sync.Mutex
	payloads []string
	fail     func(payload string) error
}

func (p *fakePoster) AddTime(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		if err := p.fail(string(payload)); err != nil {
			return err
		}
	}
	p.payloads = append(p.payloads, string(payload))
	return nil
}

func (p *fakePoster) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

func newTestQueue(t *testing.T, opts ...QueueOption) *Queue {
	opts = append([]QueueOption{WithLogger(log.New(io.Discard, "", 0))}, opts...)
	q, err := NewQueue(filepath.Join(t.TempDir(), "queue"), opts...)
	require.NoError(t, err)
	return q
}

func TestQueue_EnqueueAndPending(t *testing.T) {
	q := newTestQueue(t)

	path, err := q.Enqueue(sampleEntry())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".xml"))

	// Stray files are not queued
	require.NoError(t, os.WriteFile(filepath.Join(q.Dir(), ".partial.xml.123.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(q.Dir(), "notes.txt"), []byte("x"), 0o644))

	pending, err := q.Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, pending)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<Job>J1</Job>")
}

func TestNewQueue_Dir(t *testing.T) {
	_, err := NewQueue("  ")
	assert.ErrorIs(t, err, fsutil.ErrEmptyPath)

	dir := filepath.Join(t.TempDir(), "a", "b")
	q, err := NewQueue(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, q.Dir())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestQueue_EnqueueRejectsInvalid(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.Enqueue(Entry{})
	assert.ErrorIs(t, err, ErrInvalidEntry)

	pending, err := q.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestQueue_FlushKeepsFailures(t *testing.T) {
	q := newTestQueue(t)
	good, err := q.Enqueue(sampleEntry())
	require.NoError(t, err)
	badEntry := sampleEntry()
	badEntry.Job = "BROKEN"
	bad, err := q.Enqueue(badEntry)
	require.NoError(t, err)

	poster := &fakePoster{fail: func(payload string) error {
		if strings.Contains(payload, "BROKEN") {
			return errors.New("rejected")
		}
		return nil
	}}

	result, err := q.Flush(context.Background(), poster)
	require.NoError(t, err)
	assert.Equal(t, []string{good}, result.Posted)
	assert.Contains(t, result.Failed, bad)

	pending, err := q.Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{bad}, pending)
}

func TestQueue_FlushIsRateLimited(t *testing.T) {
	q := newTestQueue(t, WithRate(20))
	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(sampleEntry())
		require.NoError(t, err)
	}

	start := time.Now()
	result, err := q.Flush(context.Background(), &fakePoster{})
	require.NoError(t, err)

	assert.Len(t, result.Posted, 3)
	// Burst of one, then one every 50ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestQueue_FlushStopsOnCancel(t *testing.T) {
	q := newTestQueue(t, WithRate(1))
	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(sampleEntry())
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := q.Flush(ctx, &fakePoster{})
	assert.Error(t, err)
	assert.Len(t, result.Posted, 1)

	pending, err := q.Pending()
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestQueue_Watch(t *testing.T) {
	q := newTestQueue(t, WithDebounce(20*time.Millisecond))
	_, err := q.Enqueue(sampleEntry())
	require.NoError(t, err)

	poster := &fakePoster{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Watch(ctx, poster, nil) }()

	assert.Eventually(t, func() bool { return poster.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = q.Enqueue(sampleEntry())
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return poster.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}

	pending, err := q.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/stopwatch/packages/core/fsutil"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DefaultDebounce is how long Watch waits after the last queue change before uploading
const DefaultDebounce = 500 * time.Millisecond

// Poster uploads one timesheet document
type Poster interface {
	AddTime(ctx context.Context, payload []byte) error
}

// FlushResult reports what one Flush did. Failed files stay queued.
type FlushResult struct {
	Posted []string
	Failed map[string]error
}

func (r FlushResult) Empty() bool {
	return len(r.Posted) == 0 && len(r.Failed) == 0
}

// Queue is a directory of pending timesheet documents
type Queue struct {
	dir      string
	limiter  *rate.Limiter
	logger   *log.Logger
	debounce time.Duration

	flushMu sync.Mutex
}

type QueueOption func(*Queue)

// WithRate limits uploads to perSecond; zero or less means unlimited
func WithRate(perSecond float64) QueueOption {
	return func(q *Queue) {
		if perSecond > 0 {
			q.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			q.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

func WithLogger(l *log.Logger) QueueOption {
	return func(q *Queue) {
		q.logger = l
	}
}

func WithDebounce(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.debounce = d
		}
	}
}

// NewQueue opens dir, creating it if needed. A leading ~ is expanded.
func NewQueue(dir string, opts ...QueueOption) (*Queue, error) {
	resolved, err := fsutil.ExpandPath(dir)
	if err != nil {
		return nil, fmt.Errorf("queue dir: %w", err)
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return nil, fmt.Errorf("create queue dir: %w", err)
	}

	q := &Queue{
		dir:      resolved,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		logger:   log.New(os.Stderr, "", log.LstdFlags),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

func (q *Queue) Dir() string {
	return q.dir
}

// Enqueue validates e and writes it as <unix>-<uuid>.xml. The file appears
// in the queue complete or not at all.
func (q *Queue) Enqueue(e Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	payload, err := e.Encode()
	if err != nil {
		return "", fmt.Errorf("encode timesheet: %w", err)
	}

	name := fmt.Sprintf("%d-%s.xml", time.Now().Unix(), uuid.New().String())
	path := filepath.Join(q.dir, name)
	if err := fsutil.WriteFileAtomic(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write timesheet: %w", err)
	}
	return path, nil
}

// Pending lists queued documents, oldest first
func (q *Queue) Pending() ([]string, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isQueued(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(q.dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Flush uploads every pending document at the configured rate. A document
// is deleted once posted; a failed one is kept for the next flush. Only a
// cancelled ctx or an unreadable queue returns an error.
func (q *Queue) Flush(ctx context.Context, p Poster) (FlushResult, error) {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	result := FlushResult{Failed: make(map[string]error)}

	files, err := q.Pending()
	if err != nil {
		return result, err
	}

	for _, file := range files {
		if err := q.limiter.Wait(ctx); err != nil {
			return result, err
		}

		payload, err := os.ReadFile(file)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			result.Failed[file] = err
			continue
		}

		if err := p.AddTime(ctx, payload); err != nil {
			result.Failed[file] = err
			q.logger.Printf("[timesheet] upload %s failed: %v", filepath.Base(file), err)
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			continue
		}

		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			q.logger.Printf("[timesheet] posted %s but could not remove it: %v", filepath.Base(file), err)
		}
		result.Posted = append(result.Posted, file)
	}

	return result, nil
}

// Watch flushes once, then again whenever documents are added, until ctx
// is done. onFlush, if set, sees every non-empty result.
func (q *Queue) Watch(ctx context.Context, p Poster, onFlush func(FlushResult)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(q.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", q.dir, err)
	}

	flush := func() error {
		result, err := q.Flush(ctx, p)
		if onFlush != nil && !result.Empty() {
			onFlush(result)
		}
		return err
	}

	if err := flush(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	trigger := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isQueued(filepath.Base(event.Name)) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(q.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			if err := flush(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				q.logger.Printf("[timesheet] flush failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			q.logger.Printf("[timesheet] watcher error: %v", err)
		}
	}
}

func isQueued(name string) bool {
	return strings.HasSuffix(name, ".xml") && !strings.HasPrefix(name, ".")
}

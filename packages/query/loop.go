package query

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const defaultLoopQueue = 256

// Loop is the host event loop. Transports post notifications to it and the
// goroutine pumping it runs them one at a time. At most one goroutine pumps a
// loop at any moment, but that goroutine may pump again from inside an event,
// like a nested run loop.
type Loop struct {
	events    chan func()
	pumping   atomic.Bool
	owner     atomic.Int64
	depth     int // touched only by the owner
	closed    chan struct{}
	closeOnce sync.Once
}

// NewLoop creates a loop with a bounded event queue. Posting to a full queue
// blocks the poster until the loop is pumped.
func NewLoop() *Loop {
	return &Loop{
		events: make(chan func(), defaultLoopQueue),
		closed: make(chan struct{}),
	}
}

// Post enqueues fn. It returns false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.closed:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.closed:
		return false
	}
}

// acquire claims the loop for the calling goroutine. The goroutine already
// pumping it succeeds again, one level deeper.
func (l *Loop) acquire() bool {
	id := goroutineID()
	if l.pumping.CompareAndSwap(false, true) {
		l.owner.Store(id)
		l.depth = 1
		return true
	}
	if id != 0 && l.owner.Load() == id {
		l.depth++
		return true
	}
	return false
}

func (l *Loop) release() {
	l.depth--
	if l.depth == 0 {
		l.owner.Store(0)
		l.pumping.Store(false)
	}
}

// RunOnce runs at most one pending event, waiting up to wait for one to
// arrive. It returns false if nothing ran, including when another goroutine
// is pumping the loop. Called from inside an event, it runs the next event
// nested in the current one.
func (l *Loop) RunOnce(wait time.Duration) bool {
	if !l.acquire() {
		return false
	}
	defer l.release()

	if wait <= 0 {
		select {
		case fn := <-l.events:
			fn()
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case fn := <-l.events:
		fn()
		return true
	case <-timer.C:
		return false
	case <-l.closed:
		return false
	}
}

// Run pumps the loop until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	if !l.acquire() {
		return ErrLoopBusy
	}
	defer l.release()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closed:
			return nil
		case fn := <-l.events:
			fn()
		}
	}
}

// Pumping reports whether some goroutine is currently pumping the loop.
func (l *Loop) Pumping() bool {
	return l.pumping.Load()
}

// Owned reports whether the calling goroutine is the one pumping the loop.
func (l *Loop) Owned() bool {
	id := goroutineID()
	return id != 0 && l.owner.Load() == id
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}

// Close stops Run and rejects further posts. Pending events are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.closed)
	})
}

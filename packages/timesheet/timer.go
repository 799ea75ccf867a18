package timesheet

import (
	"fmt"
	"math"
	"time"
)

// Timer measures the time spent on a task. The zero value is ready to use.
type Timer struct {
	// Clock defaults to time.Now
	Clock func() time.Time

	start time.Time
	end   time.Time
}

func (t *Timer) now() time.Time {
	if t.Clock != nil {
		return t.Clock()
	}
	return time.Now()
}

// Start begins timing at at, or now when at is zero
func (t *Timer) Start(at time.Time) {
	if at.IsZero() {
		at = t.now()
	}
	t.start = at
	t.end = time.Time{}
}

// Stop ends timing at at, or now when at is zero
func (t *Timer) Stop(at time.Time) {
	if at.IsZero() {
		at = t.now()
	}
	t.end = at
}

func (t *Timer) Running() bool {
	return !t.start.IsZero() && t.end.IsZero()
}

func (t *Timer) Started() time.Time {
	return t.start
}

// Elapsed is measured up to now while the timer runs
func (t *Timer) Elapsed() time.Duration {
	if t.start.IsZero() {
		return 0
	}
	end := t.end
	if end.IsZero() {
		end = t.now()
	}
	if end.Before(t.start) {
		return 0
	}
	return end.Sub(t.start)
}

// Minutes is Elapsed rounded to the nearest minute
func (t *Timer) Minutes() int {
	return int(math.Round(t.Elapsed().Minutes()))
}

// Hours formats Minutes as HH:MM
func (t *Timer) Hours() string {
	m := t.Minutes()
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Entry turns the timed period into a timesheet entry dated on the start day
func (t *Timer) Entry(job, task, staff, note string) Entry {
	return Entry{
		Job:     job,
		Task:    task,
		Staff:   staff,
		Date:    t.start,
		Minutes: t.Minutes(),
		Note:    note,
	}
}

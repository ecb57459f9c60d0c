// Package clock supplies "today" to the progress engine so the engine itself
// stays a pure function of its inputs.
package clock

import (
	"sync"
	"time"
)

// DateLayout is the calendar date format persisted in user records.
const DateLayout = "2006-01-02"

// Clock reports the current calendar date.
type Clock interface {
	Today() string
	Now() time.Time
}

// System reads the wall clock in a fixed location.
type System struct {
	Location *time.Location
}

// NewSystem returns a System clock. A nil location means UTC, which matches
// dates produced from an ISO timestamp's date part.
func NewSystem(loc *time.Location) System {
	if loc == nil {
		loc = time.UTC
	}
	return System{Location: loc}
}

// Now implements Clock.
func (c System) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

// Today implements Clock.
func (c System) Today() string {
	return c.Now().Format(DateLayout)
}

// Fixed is a settable clock for tests and replays.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a clock frozen at now.
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

// NewFixedDate returns a clock frozen at midnight UTC of date (YYYY-MM-DD).
// It panics on malformed input and is meant for tests.
func NewFixedDate(date string) *Fixed {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		panic(err)
	}
	return NewFixed(t)
}

// Now implements Clock.
func (c *Fixed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Today implements Clock.
func (c *Fixed) Today() string {
	return c.Now().Format(DateLayout)
}

// Set moves the clock.
func (c *Fixed) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// AddDays advances the clock by n calendar days.
func (c *Fixed) AddDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

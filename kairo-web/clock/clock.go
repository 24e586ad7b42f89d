// Package clock abstracts the timers the bindings schedule so tests can
// fire them deterministically.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock is the subset of the time package the client engine depends on.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once d has elapsed. The returned stop function
	// reports whether it prevented the call.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Fake is a Clock whose time only moves when Advance is called.
// AfterFunc callbacks run synchronously inside Advance, in deadline order.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	waiters []*waiter
}

type waiter struct {
	deadline time.Time
	fn       func()
	done     bool
}

// NewFake returns a Fake clock set to initial.
func NewFake(initial time.Time) *Fake {
	return &Fake{current: initial}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Fake) AfterFunc(d time.Duration, f func()) func() bool {
	if d <= 0 {
		f()
		return func() bool { return false }
	}
	c.mu.Lock()
	w := &waiter{deadline: c.current.Add(d), fn: f}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if w.done {
			return false
		}
		w.done = true
		return true
	}
}

// Pending reports how many callbacks are still scheduled.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.waiters {
		if !w.done {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d and runs every callback whose
// deadline has been reached. Callbacks must not call Advance.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	now := c.current
	var due, rest []*waiter
	for _, w := range c.waiters {
		switch {
		case w.done:
		case !w.deadline.After(now):
			w.done = true
			due = append(due, w)
		default:
			rest = append(rest, w)
		}
	}
	c.waiters = rest
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, w := range due {
		w.fn()
	}
}

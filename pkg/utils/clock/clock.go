// Package clock abstracts wall-clock time and deferred callbacks so that
// timer-driven state can be tested deterministically.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback created by Clock.AfterFunc
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

// Ticker delivers ticks on C at a fixed period. Like time.Ticker it drops
// ticks for slow receivers.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock provides the current time, deferred callbacks and tickers
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	NewTicker(d time.Duration) Ticker
}

// Real is a Clock backed by the time package
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (Real) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Fake is a manually advanced Clock. Callbacks and ticks run synchronously
// inside Advance, in deadline order, on the caller's goroutine.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *Fake
	deadline time.Time
	seq      int
	period   time.Duration
	f        func()
	done     bool
}

type fakeTicker struct {
	timer *fakeTimer
	ch    chan time.Time
}

// NewFake creates a Fake clock starting at start
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{clock: c, deadline: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// NewTicker panics on a non-positive period, as time.NewTicker does
func (c *Fake) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tk := &fakeTicker{ch: make(chan time.Time, 1)}
	c.seq++
	tk.timer = &fakeTimer{clock: c, deadline: c.now.Add(d), seq: c.seq, period: d}
	tk.timer.f = func() {
		select {
		case tk.ch <- c.Now():
		default:
		}
	}
	c.timers = append(c.timers, tk.timer)
	return tk
}

// Pending returns the number of timers that have neither fired nor been
// stopped. A ticker stays pending until stopped.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d and fires every timer whose deadline
// has been reached.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.dueLocked(target)
		if due == nil {
			c.now = target
			c.compactLocked()
			c.mu.Unlock()
			return
		}
		if due.deadline.After(c.now) {
			c.now = due.deadline
		}
		if due.period > 0 {
			due.deadline = due.deadline.Add(due.period)
			c.seq++
			due.seq = c.seq
		} else {
			due.done = true
		}
		c.mu.Unlock()

		// callbacks may schedule or stop timers, so run them unlocked
		due.f()
	}
}

func (c *Fake) dueLocked(target time.Time) *fakeTimer {
	var candidates []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.deadline.After(target) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].deadline.Equal(candidates[j].deadline) {
			return candidates[i].seq < candidates[j].seq
		}
		return candidates[i].deadline.Before(candidates[j].deadline)
	})
	return candidates[0]
}

func (c *Fake) compactLocked() {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	c.timers = live
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	return true
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.timer.Stop() }

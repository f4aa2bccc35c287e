package testutil

import (
	"sync"
	"time"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/clock"
)

// ManualClock is a clock.Clock whose time only moves when a test calls
// Advance. Due callbacks run synchronously inside Advance, in deadline
// order, so debounce behavior can be asserted without sleeping.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
// Callbacks run without the mutex held and may schedule further timers.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers []*manualTimer
}

type manualTimer struct {
	c       *ManualClock
	id      int
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

var _ clock.Clock = (*ManualClock)(nil)

// NewManualClock creates a clock at elapsed time 0.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// AfterFunc schedules f to run once the clock has advanced by d.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	t := &manualTimer{c: c, id: c.nextID, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Stop cancels the timer. Returns false if it already fired or was stopped.
func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, running every timer that falls due.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDue(target)
		if next == nil {
			if c.now < target {
				c.now = target
			}
			c.compact()
			c.mu.Unlock()
			return
		}
		if next.at > c.now {
			c.now = next.at
		}
		next.fired = true
		c.mu.Unlock()

		next.fn()
	}
}

// nextDue returns the earliest live timer due at or before target.
// Must be called with c.mu held.
func (c *ManualClock) nextDue(target time.Duration) *manualTimer {
	var best *manualTimer
	for _, t := range c.timers {
		if t.fired || t.stopped || t.at > target {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.id < best.id) {
			best = t
		}
	}
	return best
}

// compact drops finished timers. Must be called with c.mu held.
func (c *ManualClock) compact() {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	c.timers = live
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// Elapsed returns how far the clock has advanced.
func (c *ManualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

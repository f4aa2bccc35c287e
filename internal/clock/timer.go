// Package clock provides the time sources used by the session core: a
// timer factory for debounced work and a logical write sequence.
package clock

import "time"

// Timer is a pending call scheduled by a Clock.
type Timer interface {
	// Stop prevents the call from running. It returns false if the call
	// already ran or was already stopped.
	Stop() bool
}

// Clock schedules delayed calls.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Wall is the real-time Clock backed by time.AfterFunc.
type Wall struct{}

// AfterFunc runs f on its own goroutine after d.
func (Wall) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_StartsAtZero(t *testing.T) {
	c := NewManualClock()
	assert.Equal(t, time.Duration(0), c.Elapsed())
	assert.Equal(t, 0, c.Pending())
}

func TestManualClock_FiresWhenDue(t *testing.T) {
	c := NewManualClock()
	fired := 0
	c.AfterFunc(2*time.Second, func() { fired++ })

	c.Advance(1999 * time.Millisecond)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, c.Pending())

	c.Advance(time.Hour)
	assert.Equal(t, 1, fired, "timers fire once")
}

func TestManualClock_Stop(t *testing.T) {
	c := NewManualClock()
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Second)
	assert.False(t, fired)
}

func TestManualClock_StopAfterFire(t *testing.T) {
	c := NewManualClock()
	timer := c.AfterFunc(time.Second, func() {})

	c.Advance(time.Second)
	assert.False(t, timer.Stop())
}

func TestManualClock_DeadlineOrder(t *testing.T) {
	c := NewManualClock()
	var order []string
	c.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	c.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })

	c.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 5*time.Second, c.Elapsed())
}

func TestManualClock_CallbackSchedulesWithinWindow(t *testing.T) {
	c := NewManualClock()
	var at []time.Duration
	c.AfterFunc(time.Second, func() {
		at = append(at, c.Elapsed())
		c.AfterFunc(time.Second, func() { at = append(at, c.Elapsed()) })
	})

	c.Advance(3 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, at)
}

package core

import (
	"errors"
	"time"
)

// ErrTimeout is returned when a hardware flag does not change state
// within the allotted time.
var ErrTimeout = errors.New("timeout waiting for hardware")

// Clock is a free-running microsecond counter. It is allowed to wrap.
type Clock interface {
	Micros() uint32
}

// SystemClock reads the core system tick.
type SystemClock struct{}

// Micros implements Clock.
func (SystemClock) Micros() uint32 {
	return TimerToUS(GetTime())
}

// FakeClock advances by Step on every read, so a poll loop always makes
// progress toward its deadline without real time passing.
type FakeClock struct {
	Now  uint32
	Step uint32
}

// Micros implements Clock.
func (c *FakeClock) Micros() uint32 {
	now := c.Now
	c.Now += c.Step
	return now
}

// Advance moves the clock forward without a read.
func (c *FakeClock) Advance(d time.Duration) {
	c.Now += uint32(d / time.Microsecond)
}

// Poll calls ready until it reports true or timeout elapses.
//
// A zero timeout waits forever, which is how the bare register loops
// behave; a stuck peripheral then hangs the caller.
func Poll(clock Clock, timeout time.Duration, ready func() bool) error {
	if ready() {
		return nil
	}
	if timeout <= 0 {
		for !ready() {
		}
		return nil
	}
	limit := uint32(timeout / time.Microsecond)
	start := clock.Micros()
	for {
		if ready() {
			return nil
		}
		// unsigned subtraction keeps this correct across counter wrap
		if clock.Micros()-start >= limit {
			if ready() {
				return nil
			}
			return ErrTimeout
		}
	}
}

// Delay blocks for d. Drivers take it as an injectable func so tests
// can record delays instead of sleeping.
type Delay func(d time.Duration)

// Sleep is the default Delay.
func Sleep(d time.Duration) {
	time.Sleep(d)
}

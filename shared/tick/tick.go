// Package tick provides the fixed-rate logical clock shared by client and
// server. A Tick is the unit of simulation time; nothing inside a simulation
// step reads the wall clock.
package tick

import (
	"sync/atomic"
	"time"
)

// Tick is one discrete step of the simulation clock.
type Tick uint32

// Clock counts fixed simulation steps. The current tick is readable from any
// goroutine but only the loop that owns the clock advances it.
type Clock struct {
	current atomic.Uint32
	rate    int
}

// NewClock returns a clock at tick 0 running at rate steps per second.
func NewClock(rate int) *Clock {
	if rate < 1 {
		rate = 1
	}
	return &Clock{rate: rate}
}

// Current returns the tick being simulated.
func (c *Clock) Current() Tick {
	return Tick(c.current.Load())
}

// Advance moves to the next tick and returns it.
func (c *Clock) Advance() Tick {
	return Tick(c.current.Add(1))
}

// Set jumps the clock. Only the connection handshake uses it, to line the
// client clock up with the server.
func (c *Clock) Set(t Tick) {
	c.current.Store(uint32(t))
}

// Rate returns the number of ticks per second.
func (c *Clock) Rate() int {
	return c.rate
}

// Duration returns the wall-clock length of one tick.
func (c *Clock) Duration() time.Duration {
	return time.Second / time.Duration(c.rate)
}

// Before reports whether a comes strictly before b.
func Before(a, b Tick) bool {
	return a < b
}

// Since returns how many ticks separate from and to, or 0 when to is not after from.
func Since(from, to Tick) uint32 {
	if to <= from {
		return 0
	}
	return uint32(to - from)
}

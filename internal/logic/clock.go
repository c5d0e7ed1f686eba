package logic

import "time"

// MonotonicClock derives Millis from the Go monotonic clock.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock returns a clock whose zero is the moment of the call.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Now returns milliseconds since the clock was created, truncated to 32 bits.
func (c *MonotonicClock) Now() Millis {
	return Millis(uint64(time.Since(c.start) / time.Millisecond))
}

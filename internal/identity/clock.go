package identity

import "sync/atomic"

// Clock is a monotonic logical counter.
//
// The registry uses one to salt identifiers and the engine uses one to
// stamp journal entries. Values never repeat for the clock's lifetime and
// wall-clock time is never consulted.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start.
// Used when reopening a journal to continue past its last sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// AdvanceTo moves the clock forward to n. It never moves backwards.
func (c *Clock) AdvanceTo(n int64) {
	for {
		cur := c.seq.Load()
		if cur >= n || c.seq.CompareAndSwap(cur, n) {
			return
		}
	}
}

// Current returns the current value without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

package host

import "sync/atomic"

// Clock is a monotonic logical clock for pass ordering.
//
// Every committed render pass is stamped with a strictly increasing seq.
// Logical time, never wall-clock: replayed runs produce identical stamps.
//
// Thread-safety: safe for concurrent use, though the scheduler's
// single-writer design means one goroutine typically calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used when resuming from a journal.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

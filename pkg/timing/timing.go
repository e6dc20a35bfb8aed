// Package timing provides cycle-counted delays that keep a watchdog fed and a
// small deterministic pseudo-random generator.
//
// Neither depends on a system tick: while the VGA timer interrupt owns the
// CPU the scheduler clock is not reliable, a free running cycle counter is.
package timing

// Counter is a free running, wrapping cycle counter.
type Counter interface {
	Cycles() uint32
}

// Keepalive is fed periodically during long waits.
type Keepalive interface {
	Feed()
}

// FeedInterval is the number of microseconds between keepalive feeds in
// DelayMs.
const FeedInterval = 1000

// Clock converts wall time to counter cycles.
type Clock struct {
	Counter        Counter
	CyclesPerMicro uint32
	Keepalive      Keepalive
}

// MicrosToCycles converts microseconds to counter cycles. The product is
// computed in 64 bits and truncated to the counter width.
func (c *Clock) MicrosToCycles(us uint32) uint32 {
	return uint32(uint64(us) * uint64(c.CyclesPerMicro))
}

// DelayMs busy-waits ms milliseconds, feeding the keepalive every
// FeedInterval microseconds. A zero delay returns at once without feeding.
//
// Elapsed time is measured with unsigned subtraction, so a single counter
// wrap during the wait is handled. Waits longer than one counter period are
// split into feed intervals and never compare across more than one wrap.
func (c *Clock) DelayMs(ms uint32) {
	if ms == 0 {
		return
	}

	step := c.MicrosToCycles(FeedInterval)
	remaining := uint64(ms) * 1000 / FeedInterval

	for ; remaining > 0; remaining-- {
		start := c.Counter.Cycles()
		for c.Counter.Cycles()-start < step {
		}
		if c.Keepalive != nil {
			c.Keepalive.Feed()
		}
	}
}

// DelayMicros busy-waits us microseconds without feeding.
func (c *Clock) DelayMicros(us uint32) {
	target := c.MicrosToCycles(us)
	start := c.Counter.Cycles()
	for c.Counter.Cycles()-start < target {
	}
}

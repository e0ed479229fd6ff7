package engine

// TickResult reports what a single tick did to the countdown.
type TickResult struct {
	Decremented bool
	Frozen      bool
	// Warning is set on the first tick at or below the warning threshold.
	Warning bool
	// Expired is set on the tick that reaches zero, once per question.
	Expired bool
}

// Countdown is a per-question timer advanced only by ticks. It never looks at the wall clock,
// so pausing (not ticking) cannot lose or double count seconds.
type Countdown struct {
	total     int
	warnAt    int
	remaining int
	frozenFor int
	warned    bool
	expired   bool
}

func NewCountdown(total, warnAt int) *Countdown {
	c := &Countdown{total: total, warnAt: warnAt}
	c.Reset()
	return c
}

// Reset rearms the countdown for a new question.
func (c *Countdown) Reset() {
	c.remaining = c.total
	c.frozenFor = 0
	c.warned = false
	c.expired = false
}

func (c *Countdown) Tick() TickResult {
	if c.expired {
		return TickResult{}
	}
	if c.frozenFor > 0 {
		c.frozenFor--
		return TickResult{Frozen: true}
	}

	var r TickResult
	if c.remaining > 0 {
		c.remaining--
		r.Decremented = true
	}
	if !c.warned && c.remaining <= c.warnAt {
		c.warned = true
		r.Warning = true
	}
	if c.remaining == 0 {
		c.expired = true
		r.Expired = true
	}
	return r
}

// Freeze suspends the next ticks. It refuses while already frozen or expired.
func (c *Countdown) Freeze(ticks int) bool {
	if ticks <= 0 || c.frozenFor > 0 || c.expired {
		return false
	}
	c.frozenFor = ticks
	return true
}

func (c *Countdown) Remaining() int { return c.remaining }
func (c *Countdown) Frozen() bool   { return c.frozenFor > 0 }
func (c *Countdown) Expired() bool  { return c.expired }

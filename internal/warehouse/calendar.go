package warehouse

import "sync"

// Calendar holds the process-wide simulated current date. Only the day-advance
// operation mutates it; every other read is a snapshot of the current value.
type Calendar struct {
	mu  sync.RWMutex
	cur Date
}

// NewCalendar starts the calendar at start, or at the real-world date when
// start is zero.
func NewCalendar(start Date) *Calendar {
	if start.IsZero() {
		start = Today()
	}
	return &Calendar{cur: start}
}

func (c *Calendar) Current() Date {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur
}

// Advance moves the calendar forward exactly one day and returns the new date.
func (c *Calendar) Advance() Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Next()
	return c.cur
}

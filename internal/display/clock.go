package display

import (
	"context"
	"sync/atomic"
	"time"
)

// FormatClock renders t as zero-padded 12-hour local time, e.g. "01:05:09 PM".
func FormatClock(t time.Time) string {
	return t.Format("03:04:05 PM")
}

// Clock keeps a formatted time-of-day string, refreshed every second.
// It shares nothing with the poller.
type Clock struct {
	current  atomic.Value // string
	now      func() time.Time
	interval time.Duration
	onTick   func(string)
}

// NewClock creates a clock reading local time.
func NewClock() *Clock {
	c := &Clock{now: time.Now, interval: time.Second}
	c.tick()
	return c
}

// OnTick registers fn to be called with each new clock string. Must be set before Run.
func (c *Clock) OnTick(fn func(string)) {
	c.onTick = fn
}

// String returns the latest formatted time.
func (c *Clock) String() string {
	return c.current.Load().(string)
}

// Run updates the clock until ctx is cancelled.
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s := c.tick()
			if c.onTick != nil {
				c.onTick(s)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Clock) tick() string {
	s := FormatClock(c.now())
	c.current.Store(s)
	return s
}

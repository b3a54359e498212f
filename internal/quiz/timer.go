package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Countdown ticks once per interval and fires onExpire with the owner it was
// started for when the remaining seconds reach zero. Starting it again cancels
// the previous run; Stop is the only other cancellation point.
//
// An expiry can still be delivered after a newer Start has returned, so
// onExpire must check that owner is still the current one.
type Countdown struct {
	interval time.Duration
	onTick   func(remaining int)
	onExpire func(owner string)

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    int
}

func NewCountdown(interval time.Duration, onTick func(remaining int), onExpire func(owner string)) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		interval: interval,
		onTick:   onTick,
		onExpire: onExpire,
	}
}

func (c *Countdown) Start(ctx context.Context, owner string, seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	if seconds <= 0 {
		c.cancel = nil
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.gen++
	go c.run(runCtx, owner, c.gen, seconds)
}

// Stop cancels a running countdown. It does not wait for the goroutine, so it
// is safe to call from inside onExpire.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *Countdown) run(ctx context.Context, owner string, gen, remaining int) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining--
			if ctx.Err() != nil {
				return
			}
			if c.onTick != nil {
				c.onTick(remaining)
			}
			if remaining > 0 {
				continue
			}

			c.mu.Lock()
			current := c.gen == gen && c.cancel != nil
			if current {
				c.cancel()
				c.cancel = nil
			}
			c.mu.Unlock()

			if current && c.onExpire != nil {
				c.onExpire(owner)
			}
			return
		}
	}
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

package client

import (
	"context"
	"math"
	"sync"
	"time"
)

// RateLimiter is a token bucket that paces outgoing requests. A rate of zero or
// less disables it.
type RateLimiter struct {
	mu     sync.Mutex
	rate   float64 // requests per second
	tokens float64 // current available tokens
	last   time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests per second.
func NewRateLimiter(perSecond float64) *RateLimiter {
	l := &RateLimiter{last: time.Now()}
	l.SetRate(perSecond)
	return l
}

// SetRate changes the rate. Saved-up tokens are capped to the new burst size.
func (l *RateLimiter) SetRate(perSecond float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if perSecond <= 0 {
		l.rate, l.tokens = 0, 0
		return
	}
	if l.rate <= 0 {
		l.tokens = burstSize(perSecond)
	}
	l.rate = perSecond
	if l.tokens > burstSize(perSecond) {
		l.tokens = burstSize(perSecond)
	}
	l.last = time.Now()
}

// Wait blocks until a request may be sent or ctx is done.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	for {
		delay := l.reserve()
		if delay <= 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve takes a token if one is available, otherwise it returns how long to wait.
func (l *RateLimiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rate <= 0 {
		return 0
	}

	now := time.Now()
	if elapsed := now.Sub(l.last).Seconds(); elapsed > 0 {
		l.tokens = math.Min(l.tokens+elapsed*l.rate, burstSize(l.rate))
		l.last = now
	}

	if l.tokens >= 1 {
		l.tokens--
		return 0
	}
	return time.Duration((1 - l.tokens) / l.rate * float64(time.Second))
}

func burstSize(rate float64) float64 {
	return math.Max(1, rate)
}

// SetRateLimit changes how many requests per second the client sends. Zero disables pacing.
func (c *Client) SetRateLimit(perSecond float64) {
	c.limiter.SetRate(perSecond)
}

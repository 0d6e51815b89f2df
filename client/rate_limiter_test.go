package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_ZeroAndNegativeDisable(t *testing.T) {
	for _, rate := range []float64{0, -1, -9999} {
		limiter := NewRateLimiter(rate)
		for i := 0; i < 100; i++ {
			assert.Zero(t, limiter.reserve(), "rate %v should never delay", rate)
		}
	}
}

func TestRateLimiter_NilWaitReturnsImmediately(t *testing.T) {
	var limiter *RateLimiter
	assert.NoError(t, limiter.Wait(context.Background()))
}

func TestRateLimiter_BurstThenDelay(t *testing.T) {
	limiter := NewRateLimiter(5)

	for i := 0; i < 5; i++ {
		assert.Zero(t, limiter.reserve(), "request %d is within the burst", i)
	}
	delay := limiter.reserve()
	assert.Greater(t, delay, time.Duration(0))
	assert.LessOrEqual(t, delay, 200*time.Millisecond)
}

func TestRateLimiter_FractionalRateHasBurstOfOne(t *testing.T) {
	limiter := NewRateLimiter(0.5)

	assert.Zero(t, limiter.reserve())
	assert.Greater(t, limiter.reserve(), time.Second)
}

func TestRateLimiter_SetRateCapsTokens(t *testing.T) {
	limiter := NewRateLimiter(1000)

	limiter.SetRate(10)

	limiter.mu.Lock()
	tokens := limiter.tokens
	limiter.mu.Unlock()
	assert.LessOrEqual(t, tokens, float64(10))
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	limiter := NewRateLimiter(0.1)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiter_ConcurrentWaiters(t *testing.T) {
	limiter := NewRateLimiter(1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, limiter.Wait(context.Background()))
		}()
	}
	wg.Wait()
}

func TestClient_RateLimitPacesRequests(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	c, err := New(Options{BaseURL: server.URL, RateLimit: 20})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 25; i++ {
		_, err := c.Get(context.Background(), "/ping")
		require.NoError(t, err)
	}

	// 20 requests fit in the burst; the other 5 need about 250ms of refill.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, int32(25), hits.Load())

	c.SetRateLimit(0)
	start = time.Now()
	for i := 0; i < 25; i++ {
		_, err := c.Get(context.Background(), "/ping")
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 2*time.Second)
}

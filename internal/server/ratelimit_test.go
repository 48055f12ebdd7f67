package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a controllable time source for the limiter.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(config RateLimitConfig) (*rateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(config)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_BasicRateLimit(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(RateLimitConfig{MaxAttempts: 3, Window: time.Second, BlockAfter: 10, BlockTime: time.Second})
	ip := "192.168.1.1"

	for i := 0; i < 3; i++ {
		assert.True(t, rl.check(ip).Allowed, "attempt %d should be allowed", i+1)
	}

	result := rl.check(ip)
	assert.False(t, result.Allowed)
	assert.False(t, result.IsBlocked)
	assert.Equal(t, "rate limit exceeded", result.Reason)
	assert.Equal(t, time.Second, result.RetryAfter)
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(RateLimitConfig{MaxAttempts: 2, Window: 50 * time.Millisecond})
	ip := "192.168.1.2"

	assert.True(t, rl.check(ip).Allowed)
	clock.advance(10 * time.Millisecond)
	assert.True(t, rl.check(ip).Allowed)

	result := rl.check(ip)
	require.False(t, result.Allowed)
	assert.Equal(t, 40*time.Millisecond, result.RetryAfter)

	clock.advance(60 * time.Millisecond)
	assert.True(t, rl.check(ip).Allowed)
}

func TestRateLimiter_FailureBlocking(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(RateLimitConfig{MaxAttempts: 20, Window: time.Minute, BlockAfter: 3, BlockTime: time.Minute})
	ip := "192.168.1.3"

	rl.recordFailure(ip)
	rl.recordFailure(ip)
	assert.True(t, rl.check(ip).Allowed)

	rl.recordFailure(ip)
	result := rl.check(ip)
	assert.False(t, result.Allowed)
	assert.True(t, result.IsBlocked)
	assert.Equal(t, "too many failed attempts", result.Reason)
	assert.Equal(t, time.Minute, result.RetryAfter)

	clock.advance(time.Minute + time.Second)
	assert.True(t, rl.check(ip).Allowed)
}

func TestRateLimiter_SuccessResetsFailures(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(RateLimitConfig{MaxAttempts: 20, BlockAfter: 3})
	ip := "192.168.1.4"

	rl.recordFailure(ip)
	rl.recordFailure(ip)
	rl.recordSuccess(ip)
	rl.recordFailure(ip)
	rl.recordFailure(ip)

	assert.True(t, rl.check(ip).Allowed)
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(RateLimitConfig{MaxAttempts: 1})

	assert.True(t, rl.check("10.0.0.1").Allowed)
	assert.False(t, rl.check("10.0.0.1").Allowed)
	assert.True(t, rl.check("10.0.0.2").Allowed)
}

func TestRateLimiter_ExponentialBackoff(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(RateLimitConfig{MaxAttempts: 100, Window: time.Hour, BlockAfter: 2, BlockTime: 10 * time.Second})
	ip := "192.168.1.30"

	rl.recordFailure(ip)
	rl.recordFailure(ip)
	result := rl.check(ip)
	require.True(t, result.IsBlocked)
	assert.Equal(t, 10*time.Second, result.RetryAfter)

	clock.advance(11 * time.Second)
	require.True(t, rl.check(ip).Allowed)

	rl.recordFailure(ip)
	rl.recordFailure(ip)
	result = rl.check(ip)
	require.True(t, result.IsBlocked)
	assert.Equal(t, 20*time.Second, result.RetryAfter)
}

func TestRateLimiter_BlockIsCapped(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(RateLimitConfig{BlockAfter: 1, BlockTime: time.Hour})
	ip := "192.168.1.31"

	for i := 0; i < 80; i++ {
		rl.recordFailure(ip)
	}
	assert.Equal(t, maxBlock, rl.check(ip).RetryAfter)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(RateLimitConfig{MaxAttempts: 5, Window: time.Minute, BlockAfter: 2, BlockTime: time.Minute})

	rl.check("10.0.0.1")
	rl.recordFailure("10.0.0.2")
	rl.recordFailure("10.0.0.2")

	clock.advance(2 * time.Minute)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.attempts)
	assert.Empty(t, rl.blocked)
	assert.Empty(t, rl.failures)
}

func TestDefaultRateLimitConfig(t *testing.T) {
	t.Parallel()

	config := DefaultRateLimitConfig()
	assert.Equal(t, 5, config.MaxAttempts)
	assert.Equal(t, time.Minute, config.Window)
	assert.Equal(t, 10, config.BlockAfter)
	assert.Equal(t, 5*time.Minute, config.BlockTime)

	rl := newRateLimiter(RateLimitConfig{})
	assert.Equal(t, config, rl.config)
}

func TestExtractIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "203.0.113.5:5555", nil, "203.0.113.5"},
		{"remote addr without port", "203.0.113.5", nil, "203.0.113.5"},
		{"forwarded for", "10.0.0.1:1", map[string]string{"X-Forwarded-For": " 198.51.100.7 , 10.0.0.1"}, "198.51.100.7"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": " 198.51.100.8 "}, "198.51.100.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/auth", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractIP(req))
		})
	}
}

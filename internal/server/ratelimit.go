package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/thruflo/snapview/internal/logging"
)

// RateLimitConfig holds login rate limiting configuration.
type RateLimitConfig struct {
	MaxAttempts int           // Maximum attempts per window (default: 5)
	Window      time.Duration // Time window for rate limiting (default: 1 minute)
	BlockAfter  int           // Block after this many failed attempts (default: 10)
	BlockTime   time.Duration // Base block duration (default: 5 minutes, doubles each block)
}

// DefaultRateLimitConfig returns the default rate limiting configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts: 5,
		Window:      time.Minute,
		BlockAfter:  10,
		BlockTime:   5 * time.Minute,
	}
}

// maxBlock caps the exponential block duration.
const maxBlock = 24 * time.Hour

// rateLimiter is a sliding window limiter on login attempts per client IP,
// with exponential blocking after repeated failures.
type rateLimiter struct {
	mu     sync.Mutex
	config RateLimitConfig
	now    func() time.Time

	attempts map[string][]time.Time // ip -> attempt times inside the window
	failures map[string]int         // ip -> consecutive failures
	blocked  map[string]time.Time   // ip -> block expiry
}

func newRateLimiter(config RateLimitConfig) *rateLimiter {
	def := DefaultRateLimitConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.BlockAfter <= 0 {
		config.BlockAfter = def.BlockAfter
	}
	if config.BlockTime <= 0 {
		config.BlockTime = def.BlockTime
	}

	return &rateLimiter{
		config:   config,
		now:      time.Now,
		attempts: make(map[string][]time.Time),
		failures: make(map[string]int),
		blocked:  make(map[string]time.Time),
	}
}

// checkResult is the outcome of a rate limit check.
type checkResult struct {
	Allowed    bool
	RetryAfter time.Duration
	IsBlocked  bool   // Rejected because of repeated failures
	Reason     string // Why the attempt was rejected
}

// check reports whether ip may attempt a login now, and records the
// attempt if so.
func (rl *rateLimiter) check(ip string) checkResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	if expiry, ok := rl.blocked[ip]; ok {
		if now.Before(expiry) {
			return checkResult{
				RetryAfter: expiry.Sub(now),
				IsBlocked:  true,
				Reason:     "too many failed attempts",
			}
		}
		delete(rl.blocked, ip)
	}

	recent := pruneBefore(rl.attempts[ip], now.Add(-rl.config.Window))
	rl.attempts[ip] = recent

	if len(recent) >= rl.config.MaxAttempts {
		retryAfter := recent[0].Add(rl.config.Window).Sub(now)
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		return checkResult{
			RetryAfter: retryAfter,
			Reason:     "rate limit exceeded",
		}
	}

	rl.attempts[ip] = append(recent, now)
	return checkResult{Allowed: true}
}

// recordSuccess clears the failure count for ip.
func (rl *rateLimiter) recordSuccess(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.failures, ip)
	delete(rl.blocked, ip)
}

// recordFailure counts a failed login. Every BlockAfter failures the ip is
// blocked for BlockTime, doubling with each further block.
func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.failures[ip]++
	count := rl.failures[ip]
	if count < rl.config.BlockAfter {
		return
	}

	blocks := (count - rl.config.BlockAfter) / rl.config.BlockAfter
	duration := rl.config.BlockTime
	for i := 0; i < blocks && duration < maxBlock; i++ {
		duration *= 2
	}
	duration = min(duration, maxBlock)

	rl.blocked[ip] = rl.now().Add(duration)
	logging.Warn("login blocked", "ip", ip, "failures", count, "duration", duration)
}

// cleanup removes expired entries.
func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.config.Window)

	for ip, times := range rl.attempts {
		if recent := pruneBefore(times, windowStart); len(recent) > 0 {
			rl.attempts[ip] = recent
		} else {
			delete(rl.attempts, ip)
		}
	}
	for ip, expiry := range rl.blocked {
		if now.After(expiry) {
			delete(rl.blocked, ip)
		}
	}
	// Failure counts are kept while an ip is blocked or still active.
	for ip := range rl.failures {
		_, isBlocked := rl.blocked[ip]
		_, active := rl.attempts[ip]
		if !isBlocked && !active {
			delete(rl.failures, ip)
		}
	}
}

func pruneBefore(times []time.Time, start time.Time) []time.Time {
	kept := times[:0:0]
	for _, ts := range times {
		if ts.After(start) {
			kept = append(kept, ts)
		}
	}
	return kept
}

// extractIP returns the client IP, preferring proxy headers.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

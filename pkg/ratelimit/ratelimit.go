// Package ratelimit holds in-memory fixed-window limiters.
//
//   - LoginRateLimiter: attempts per key (client IP) per window
//   - MessageRateLimiter: actions per key (user id) per window, then a cooldown
//
// Design:
//   - Each key owns a bucket: a counter and the time its window opened.
//   - The first request of a key opens the window; later requests count
//     against it until the window has passed, then a new one opens.
//   - A background sweeper drops buckets whose window (or cooldown) is over,
//     so keys that never come back do not accumulate.
//
// State is process-local and a restart forgets every bucket. The server runs
// as a single instance, and writing a counter to SQLite on every login or
// comment would add a write to the hottest paths for no gain.
//
// The package imports nothing from the rest of the module, so both handlers
// and middleware can use it without an import cycle.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// bucket counts the attempts of one key inside the window opened at
// windowStart.
type bucket struct {
	count       int
	windowStart time.Time
}

// LoginRateLimiter allows maxAttempts per key per window. A successful login
// should Reset the key.
//
// Usage:
//
//	limiter := NewLoginRateLimiter(5, 2*time.Minute)
//	defer limiter.Stop()
//
//	// in the login handler
//	if !limiter.Allow(ip) {
//		w.Header().Set("Retry-After", strconv.Itoa(limiter.RetryAfterSeconds(ip)))
//		// 429
//	}
//	// after a successful login
//	limiter.Reset(ip)
type LoginRateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	stopOnce    sync.Once
	stopCleanup chan struct{}
}

// NewLoginRateLimiter starts a limiter with a background sweeper; call Stop
// to end it.
func NewLoginRateLimiter(maxAttempts int, window time.Duration) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go sweep(time.Minute, rl.stopCleanup, rl.cleanup)
	return rl
}

// Allow records an attempt for key and reports whether it is within budget.
func (rl *LoginRateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowStart) > rl.window {
		rl.buckets[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	b.count++
	return b.count <= rl.maxAttempts
}

// Reset forgets key.
func (rl *LoginRateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, key)
}

// RetryAfterSeconds returns how long key has to wait, rounded up.
func (rl *LoginRateLimiter) RetryAfterSeconds(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		return 0
	}
	return ceilSeconds(rl.window - rl.now().Sub(b.windowStart))
}

// Stop ends the background sweeper.
func (rl *LoginRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *LoginRateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, key)
		}
	}
}

func sweep(every time.Duration, stop <-chan struct{}, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn()
		case <-stop:
			return
		}
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// ExtractIP returns the client address of r: the first X-Forwarded-For hop,
// then X-Real-IP, then the connection's remote host.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatRetryMessage renders a wait for humans, e.g. "30 second(s)".
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}

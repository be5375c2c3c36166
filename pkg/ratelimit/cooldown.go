package ratelimit

import (
	"sync"
	"time"
)

type cooldownBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time
}

// MessageRateLimiter allows maxActions per key per window. Going over the
// budget blocks the key for cooldown, after which a fresh window starts.
//
// The cooldown is what separates it from LoginRateLimiter. A plain window
// lets a flooding user send maxActions again the moment the window rolls
// over; the cooldown makes the penalty longer than the window itself, and
// CooldownSeconds tells the client how long to wait.
//
// Used for direct messages and comments, keyed by user id.
type MessageRateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*cooldownBucket
	maxActions int
	window     time.Duration
	cooldown   time.Duration
	now        func() time.Time

	stopOnce    sync.Once
	stopCleanup chan struct{}
}

// NewMessageRateLimiter starts a limiter with a background sweeper; call
// Stop to end it.
func NewMessageRateLimiter(maxActions int, window, cooldown time.Duration) *MessageRateLimiter {
	rl := &MessageRateLimiter{
		buckets:     make(map[string]*cooldownBucket),
		maxActions:  maxActions,
		window:      window,
		cooldown:    cooldown,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go sweep(30*time.Second, rl.stopCleanup, rl.cleanup)
	return rl
}

// Allow records an action for key and reports whether it may proceed.
func (rl *MessageRateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		rl.buckets[key] = &cooldownBucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		*b = cooldownBucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > rl.maxActions {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}
	return true
}

// CooldownSeconds returns the remaining cooldown of key, rounded up.
func (rl *MessageRateLimiter) CooldownSeconds(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || b.cooldownUntil.IsZero() {
		return 0
	}
	return ceilSeconds(b.cooldownUntil.Sub(rl.now()))
}

// Stop ends the background sweeper.
func (rl *MessageRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *MessageRateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		windowOver := now.Sub(b.windowStart) > rl.window
		cooldownOver := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)
		if windowOver && cooldownOver {
			delete(rl.buckets, key)
		}
	}
}

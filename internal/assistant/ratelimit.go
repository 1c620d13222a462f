package assistant

import (
	"fmt"
	"sync"
	"time"
)

// rateWindow tracks one user's fixed-window counter.
type rateWindow struct {
	windowStart   time.Time
	count         int
	lastRequestAt time.Time
}

// RateLimiter gates assistant calls with a fixed per-user window plus a floor
// on spacing between consecutive requests, so bursts are blunted even inside
// an open window. Allow is a pure read; RecordUsage must be called exactly
// once per accepted request. The mutex makes the check-then-record sequence
// safe under Go's concurrent scheduling.
type RateLimiter struct {
	mu         sync.Mutex
	window     time.Duration
	maxPerWin  int
	minSpacing time.Duration
	users      map[string]*rateWindow
	now        func() time.Time
}

// NewRateLimiter builds a limiter allowing maxPerWindow requests per window
// with at least minSpacing between consecutive requests.
func NewRateLimiter(window time.Duration, maxPerWindow int, minSpacing time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if maxPerWindow <= 0 {
		maxPerWindow = 5
	}
	return &RateLimiter{
		window:     window,
		maxPerWin:  maxPerWindow,
		minSpacing: minSpacing,
		users:      make(map[string]*rateWindow),
		now:        time.Now,
	}
}

// Allow reports whether a request from userID may proceed, with a
// user-facing retry message when it may not. State is not mutated.
func (l *RateLimiter) Allow(userID string) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	win, ok := l.users[userID]
	if !ok {
		return true, ""
	}

	if !win.lastRequestAt.IsZero() && l.minSpacing > 0 {
		if gap := now.Sub(win.lastRequestAt); gap < l.minSpacing {
			wait := l.minSpacing - gap
			return false, fmt.Sprintf("Slow down a little — try again in %s.", wait.Round(time.Second))
		}
	}

	if now.Sub(win.windowStart) >= l.window {
		return true, ""
	}
	if win.count >= l.maxPerWin {
		wait := l.window - now.Sub(win.windowStart)
		return false, fmt.Sprintf("Rate limit reached — try again in %s.", wait.Round(time.Second))
	}
	return true, ""
}

// RecordUsage charges one request to userID. Call it after Allow returned
// true and before the downstream call.
func (l *RateLimiter) RecordUsage(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	win, ok := l.users[userID]
	if !ok || now.Sub(win.windowStart) >= l.window {
		l.users[userID] = &rateWindow{windowStart: now, count: 1, lastRequestAt: now}
		return
	}
	win.count++
	win.lastRequestAt = now
}

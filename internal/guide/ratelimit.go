package guide

import (
	"sync"
	"time"
)

// Limiter gates adapter calls with fixed per-minute and per-day windows.
// Check and increment happen as one step under the lock so two concurrent
// callers cannot both pass a window check that only one should pass.
type Limiter struct {
	mu sync.Mutex

	maxPerMinute int
	maxPerDay    int

	windowStart   time.Time
	countInWindow int

	dailyWindowStart time.Time
	dailyCount       int
}

// NewLimiter constructs a limiter. A non-positive limit disables that window.
func NewLimiter(maxPerMinute, maxPerDay int) *Limiter {
	return &Limiter{maxPerMinute: maxPerMinute, maxPerDay: maxPerDay}
}

// Allow reports whether a call may proceed at the given instant and, if so,
// records it.
func (l *Limiter) Allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll(now)

	if l.maxPerMinute > 0 && l.countInWindow >= l.maxPerMinute {
		return false
	}
	if l.maxPerDay > 0 && l.dailyCount >= l.maxPerDay {
		return false
	}
	l.countInWindow++
	l.dailyCount++
	return true
}

// Remaining returns how many calls are left in the minute and day windows.
// Disabled windows report -1.
func (l *Limiter) Remaining(now time.Time) (minute, day int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll(now)

	minute, day = -1, -1
	if l.maxPerMinute > 0 {
		minute = l.maxPerMinute - l.countInWindow
	}
	if l.maxPerDay > 0 {
		day = l.maxPerDay - l.dailyCount
	}
	return minute, day
}

// roll resets expired windows. Caller must hold the lock.
func (l *Limiter) roll(now time.Time) {
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= time.Minute {
		l.windowStart = now
		l.countInWindow = 0
	}
	if l.dailyWindowStart.IsZero() || now.Sub(l.dailyWindowStart) >= 24*time.Hour {
		l.dailyWindowStart = now
		l.dailyCount = 0
	}
}

package notify

import (
	"sync"
	"time"
)

// RateLimiter implements rate limiting for notifications
type RateLimiter struct {
	mu        sync.Mutex
	events    map[NotifierType][]time.Time
	interval  time.Duration
	maxEvents int
	now       func() time.Time
}

// NewRateLimiter allows maxEvents per interval and notifier.
// A non-positive maxEvents disables limiting.
func NewRateLimiter(interval time.Duration, maxEvents int) *RateLimiter {
	return &RateLimiter{
		events:    make(map[NotifierType][]time.Time),
		interval:  interval,
		maxEvents: maxEvents,
		now:       time.Now,
	}
}

// AllowNotification checks if a notification is allowed under rate limits
func (r *RateLimiter) AllowNotification(notifierType NotifierType) bool {
	if r.maxEvents <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	valid := r.events[notifierType][:0]
	for _, ts := range r.events[notifierType] {
		if now.Sub(ts) < r.interval {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= r.maxEvents {
		r.events[notifierType] = valid
		return false
	}

	r.events[notifierType] = append(valid, now)
	return true
}

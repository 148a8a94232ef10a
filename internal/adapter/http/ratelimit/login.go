// Package ratelimit guards the login form against credential guessing.
//
// LoginRateLimiter counts attempts per identifier inside a fixed window that is
// anchored at the first attempt. State lives in process memory only and is not
// shared between instances.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/civicyouth/portal/internal/domain"
	"github.com/civicyouth/portal/internal/port"
)

const (
	// WindowDuration is how long a window stays open after its first attempt.
	WindowDuration = 15 * time.Minute
	// MaxAttempts is the number of allowed checks per identifier per window.
	MaxAttempts = 5
	// SweepInterval is how often expired records are evicted.
	SweepInterval = time.Minute
)

type AttemptRecord struct {
	Count     int
	ResetTime time.Time
}

type LoginRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*AttemptRecord
	now      func() time.Time

	onDenied  func(identifier string)
	onLockout func(identifier string, resetTime time.Time)
}

var _ port.LoginLimiter = (*LoginRateLimiter)(nil)

type Option func(*LoginRateLimiter)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *LoginRateLimiter) {
		r.now = now
	}
}

// WithOnDenied sets a callback invoked for every denied check.
func WithOnDenied(fn func(identifier string)) Option {
	return func(r *LoginRateLimiter) {
		r.onDenied = fn
	}
}

// WithOnLockout sets a callback invoked once per window, on the check that
// consumes the last allowed attempt.
func WithOnLockout(fn func(identifier string, resetTime time.Time)) Option {
	return func(r *LoginRateLimiter) {
		r.onLockout = fn
	}
}

func NewLoginRateLimiter(opts ...Option) *LoginRateLimiter {
	r := &LoginRateLimiter{
		attempts: make(map[string]*AttemptRecord),
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Check registers an attempt for identifier and reports whether it may proceed.
// Every call counts, whatever the outcome of the credential check that follows.
func (r *LoginRateLimiter) Check(identifier string) domain.LimitDecision {
	r.mu.Lock()

	now := r.now()
	record, exists := r.attempts[identifier]

	if !exists || now.After(record.ResetTime) {
		r.attempts[identifier] = &AttemptRecord{
			Count:     1,
			ResetTime: now.Add(WindowDuration),
		}
		r.mu.Unlock()
		return domain.LimitDecision{Allowed: true, RemainingAttempts: MaxAttempts - 1}
	}

	if record.Count >= MaxAttempts {
		resetTime := record.ResetTime
		r.mu.Unlock()

		if r.onDenied != nil {
			r.onDenied(identifier)
		}
		return domain.LimitDecision{Allowed: false, RemainingAttempts: 0, ResetTime: resetTime}
	}

	record.Count++
	remaining := MaxAttempts - record.Count
	resetTime := record.ResetTime
	r.mu.Unlock()

	// hooks run outside the lock, they may log or touch metrics
	if remaining == 0 && r.onLockout != nil {
		r.onLockout(identifier, resetTime)
	}

	return domain.LimitDecision{Allowed: true, RemainingAttempts: remaining}
}

// Reset forgets identifier. Resetting an unknown identifier is a no-op.
func (r *LoginRateLimiter) Reset(identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.attempts, identifier)
}

// Len returns the number of tracked identifiers, expired ones included until
// the next sweep.
func (r *LoginRateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.attempts)
}

// Start runs the periodic sweep until ctx is cancelled.
func (r *LoginRateLimiter) Start(ctx context.Context) {
	go r.cleanup(ctx, SweepInterval)
}

func (r *LoginRateLimiter) cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep drops every record whose window has already closed and returns how
// many were removed.
func (r *LoginRateLimiter) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for identifier, record := range r.attempts {
		if now.After(record.ResetTime) {
			delete(r.attempts, identifier)
			removed++
		}
	}
	return removed
}

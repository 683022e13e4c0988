// Package limiter implements the in-process login attempt limiter: a fixed
// number of points per key per window.
package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/postboard/apiv1/utils"
)

type counter struct {
	remaining int
	expiresAt time.Time
}

type Limiter struct {
	mu       sync.Mutex
	points   int
	window   time.Duration
	now      func() time.Time
	counters map[string]*counter
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New allows points calls per key per window. Non-positive values fall back to
// utils.MAX_NUM_LOGIN_ATTEMPTS and utils.LOGIN_ATTEMPT_WINDOW.
func New(points int, window time.Duration, opts ...Option) *Limiter {
	if points <= 0 {
		points = utils.MAX_NUM_LOGIN_ATTEMPTS
	}
	if window <= 0 {
		window = utils.LOGIN_ATTEMPT_WINDOW
	}
	l := &Limiter{
		points:   points,
		window:   window,
		now:      time.Now,
		counters: make(map[string]*counter),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Consume takes one point from key. It returns utils.ErrRateLimited once the
// key has no points left in its current window.
func (l *Limiter) Consume(key string) error {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = &counter{remaining: l.points, expiresAt: now.Add(l.window)}
		l.counters[key] = c
	}
	if c.remaining <= 0 {
		return utils.ErrRateLimited
	}
	c.remaining--
	return nil
}

// Remaining reports the points left for key in its current window.
func (l *Limiter) Remaining(key string) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		return l.points
	}
	return c.remaining
}

// Sweep drops counters whose window has elapsed and returns how many were dropped.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, c := range l.counters {
		if !now.Before(c.expiresAt) {
			delete(l.counters, key)
			n++
		}
	}
	return n
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}

// Run sweeps every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

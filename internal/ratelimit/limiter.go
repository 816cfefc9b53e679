// Package ratelimit spaces out repeated actions per key, such as forced
// refreshes from one client.
package ratelimit

import (
	"sync"
	"time"
)

// RateLimiter allows at most one action per key per interval.
type RateLimiter interface {
	Allow(key string) bool
	Reset(key string)
}

// Limiter is the in-process RateLimiter.
type Limiter struct {
	mu          sync.Mutex
	hosts       map[string]time.Time
	minInterval time.Duration
}

func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		hosts:       make(map[string]time.Time),
		minInterval: minInterval,
	}
}

// Allow records the action and reports true when the key's previous
// allowed action is at least minInterval old. A refused call does not
// move the window.
func (l *Limiter) Allow(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if last, ok := l.hosts[host]; ok && now.Sub(last) < l.minInterval {
		return false
	}
	l.hosts[host] = now
	return true
}

// Wait blocks until the key may act again, then records the action.
func (l *Limiter) Wait(host string) {
	for {
		l.mu.Lock()
		now := time.Now()
		last, ok := l.hosts[host]
		remaining := l.minInterval - now.Sub(last)
		if !ok || remaining <= 0 {
			l.hosts[host] = now
			l.mu.Unlock()
			return
		}
		l.mu.Unlock()
		time.Sleep(remaining)
	}
}

func (l *Limiter) Reset(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hosts, host)
}

func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hosts = make(map[string]time.Time)
}

var _ RateLimiter = (*Limiter)(nil)

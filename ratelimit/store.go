// Package ratelimit keeps one token-bucket limiter per key (chat user, client IP).
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Store hands out a limiter per key and forgets keys idle longer than ttl.
type Store struct {
	mu              sync.Mutex
	limiters        map[string]*entry
	r               rate.Limit
	b               int
	ttl             time.Duration
	cleanupInterval time.Duration
	lastCleanup     time.Time
	now             func() time.Time
}

type entry struct {
	lim     *rate.Limiter
	lastHit time.Time
}

// NewStore builds a store allowing r events per second with burst b per key.
func NewStore(r rate.Limit, burst int, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{
		limiters:        make(map[string]*entry),
		r:               r,
		b:               burst,
		ttl:             ttl,
		cleanupInterval: time.Minute,
		lastCleanup:     time.Now(),
		now:             time.Now,
	}
}

// Every is a convenience for "one event per d".
func Every(d time.Duration) rate.Limit { return rate.Every(d) }

// Allow reports whether key may proceed now. A nil store allows everything.
func (s *Store) Allow(key string) bool {
	if s == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	// lazy cleanup
	if now.Sub(s.lastCleanup) >= s.cleanupInterval {
		for k, v := range s.limiters {
			if now.Sub(v.lastHit) > s.ttl {
				delete(s.limiters, k)
			}
		}
		s.lastCleanup = now
	}

	e, ok := s.limiters[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(s.r, s.b)}
		s.limiters[key] = e
	}
	e.lastHit = now
	return e.lim.AllowN(now, 1)
}

// Len is the number of tracked keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	cleanupThreshold = 1000
	maxIdleAge       = 10 * time.Minute
)

type userEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter — token bucket на каждого пользователя; старые записи чистятся по ходу.
type UserRateLimiter struct {
	users map[string]*userEntry
	mu    sync.Mutex
	r     rate.Limit
	b     int
	now   func() time.Time
}

func NewUserRateLimiter(r rate.Limit, b int) *UserRateLimiter {
	return &UserRateLimiter{
		users: make(map[string]*userEntry),
		r:     r,
		b:     b,
		now:   time.Now,
	}
}

// PerMinute переводит "n в минуту" в rate.Limit. n <= 0 — без ограничений.
func PerMinute(n float64) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Limit(n / 60)
}

func (l *UserRateLimiter) limiter(userID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.users) > cleanupThreshold {
		cutoff := now.Add(-maxIdleAge)
		for k, e := range l.users {
			if e.lastSeen.Before(cutoff) {
				delete(l.users, k)
			}
		}
	}

	e, ok := l.users[userID]
	if !ok {
		e = &userEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.users[userID] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Allow: nil-лимитер пропускает всех.
func (l *UserRateLimiter) Allow(userID string) bool {
	if l == nil {
		return true
	}
	return l.limiter(userID).AllowN(l.now(), 1)
}

func (l *UserRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}

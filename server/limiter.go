package server

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 10 * time.Minute

type viewerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLimiter(cfg RateLimitConfig) *Limiter {
	return &Limiter{
		every:    rate.Every(cfg.Every.Std()),
		burst:    cfg.Burst,
		limiters: make(map[string]*viewerLimiter),
		now:      time.Now,
	}
}

// Limiter hands out one token bucket per viewer.
type Limiter struct {
	every rate.Limit
	burst int

	limiters   map[string]*viewerLimiter
	limitersMu sync.Mutex
	now        func() time.Time
}

func (l *Limiter) Allow(key string) bool {
	if l.burst == 0 {
		return true
	}

	l.limitersMu.Lock()
	defer l.limitersMu.Unlock()

	now := l.now()
	vl, ok := l.limiters[key]
	if !ok {
		vl = &viewerLimiter{
			limiter: rate.NewLimiter(l.every, l.burst),
		}
		l.limiters[key] = vl
	}
	vl.lastSeen = now

	return vl.limiter.AllowN(now, 1)
}

// Cleanup forgets viewers which have been idle for a while, every interval
// until ctx is done.
func (l *Limiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.doCleanup()
		}
	}
}

func (l *Limiter) doCleanup() {
	l.limitersMu.Lock()
	defer l.limitersMu.Unlock()

	now := l.now()
	for key, vl := range l.limiters {
		if now.Sub(vl.lastSeen) > limiterIdleTimeout {
			delete(l.limiters, key)
		}
	}
}

package adapters

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	ports "github.com/ZanzyTHEbar/vchat/vchat/generation/harness/ports"
)

// KeyedLimiter paces calls per key with a token bucket from x/time/rate.
type KeyedLimiter struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

// NewKeyedLimiter returns a limiter allowing rps sustained calls per key with
// the given burst. Non-positive values fall back to 1 rps and burst 1.
func NewKeyedLimiter(rps float64, burst int) *KeyedLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{m: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (l *KeyedLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.m[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.m[key] = lim
	return lim
}

// Acquire waits for a token. Tokens are consumed, so release is a no-op.
func (l *KeyedLimiter) Acquire(ctx context.Context, key string) (func(), error) {
	if err := l.get(key).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", key, err)
	}
	return func() {}, nil
}

var _ ports.RateLimiter = (*KeyedLimiter)(nil)
